// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package allocation

// Instrument maps a ticker to an asset class with its share of that class's
// allocated capital.
type Instrument struct {
	Ticker            string     `json:"ticker"`
	Class             AssetClass `json:"assetClass"`
	WeightWithinClass float64    `json:"weightWithinClass"`
}

// DefaultUniverse returns the standard ETF basket. Within-class weights for
// stocks follow global market cap: US ~63%, EU ~15%, JP ~6%, CN ~3%, IN ~2%,
// KR ~1.5%.
func DefaultUniverse() []Instrument {
	return []Instrument{
		{Ticker: "SPY", Class: ClassStocks, WeightWithinClass: 0.44},  // US large cap (S&P500)
		{Ticker: "QQQ", Class: ClassStocks, WeightWithinClass: 0.19},  // US tech (Nasdaq100)
		{Ticker: "VGK", Class: ClassStocks, WeightWithinClass: 0.15},  // Europe
		{Ticker: "EWJ", Class: ClassStocks, WeightWithinClass: 0.07},  // Japan
		{Ticker: "FXI", Class: ClassStocks, WeightWithinClass: 0.06},  // China
		{Ticker: "INDA", Class: ClassStocks, WeightWithinClass: 0.05}, // India
		{Ticker: "EWY", Class: ClassStocks, WeightWithinClass: 0.04},  // Korea

		{Ticker: "SHY", Class: ClassBonds, WeightWithinClass: 0.15},  // US short-term
		{Ticker: "IEI", Class: ClassBonds, WeightWithinClass: 0.20},  // US mid-term
		{Ticker: "IEF", Class: ClassBonds, WeightWithinClass: 0.25},  // US 7-10yr
		{Ticker: "TLT", Class: ClassBonds, WeightWithinClass: 0.20},  // US long-term
		{Ticker: "BNDX", Class: ClassBonds, WeightWithinClass: 0.20}, // International

		{Ticker: "VNQ", Class: ClassRealEstate, WeightWithinClass: 0.60},
		{Ticker: "VNQI", Class: ClassRealEstate, WeightWithinClass: 0.40},

		{Ticker: "GLD", Class: ClassCommodities, WeightWithinClass: 0.50},
		{Ticker: "CPER", Class: ClassCommodities, WeightWithinClass: 0.25},
		{Ticker: "USO", Class: ClassCommodities, WeightWithinClass: 0.25},

		{Ticker: "IBIT", Class: ClassCrypto, WeightWithinClass: 0.70},
		{Ticker: "BITO", Class: ClassCrypto, WeightWithinClass: 0.30},
	}
}

// FilterAvailable drops instruments without price coverage and renormalizes
// the within-class weights of the survivors so each class still sums to 1.
// A class whose surviving weights total 0 is left unnormalized.
func FilterAvailable(universe []Instrument, available func(ticker string) bool) []Instrument {
	kept := make([]Instrument, 0, len(universe))
	classTotals := make(map[AssetClass]float64)
	for _, inst := range universe {
		if !available(inst.Ticker) {
			continue
		}
		kept = append(kept, inst)
		classTotals[inst.Class] += inst.WeightWithinClass
	}

	for i := range kept {
		if total := classTotals[kept[i].Class]; total > 0 {
			kept[i].WeightWithinClass /= total
		}
	}

	return kept
}
