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

import (
	"github.com/regime-vault/rv-api/data"
)

// ClassWeights holds percentage points per asset class; a full vector sums
// to 100.
type ClassWeights map[AssetClass]float64

// RegimeAllocations maps each regime to its class percentage vector.
type RegimeAllocations map[data.RegimeLabel]ClassWeights

// Clone deep-copies a weight vector.
func (w ClassWeights) Clone() ClassWeights {
	out := make(ClassWeights, len(w))
	for class, pct := range w {
		out[class] = pct
	}
	return out
}

// Clone deep-copies the whole allocation table.
func (a RegimeAllocations) Clone() RegimeAllocations {
	out := make(RegimeAllocations, len(a))
	for regime, weights := range a {
		out[regime] = weights.Clone()
	}
	return out
}

// Sum totals the vector's percentage points.
func (w ClassWeights) Sum() float64 {
	var total float64
	for _, pct := range w {
		total += pct
	}
	return total
}

// baseTemplates encode a fixed economic prior per regime:
// high inflation favors commodities over cash, low growth favors bonds,
// expanding liquidity favors risk assets. Each vector sums to 100.
var baseTemplates = RegimeAllocations{
	data.RegimeGoldilocks:             {ClassStocks: 50, ClassBonds: 15, ClassRealEstate: 10, ClassCommodities: 5, ClassCrypto: 10, ClassCash: 10},
	data.RegimeDisinflationTightening: {ClassStocks: 35, ClassBonds: 30, ClassRealEstate: 8, ClassCommodities: 7, ClassCrypto: 5, ClassCash: 15},
	data.RegimeInflationBoom:          {ClassStocks: 20, ClassBonds: 5, ClassRealEstate: 8, ClassCommodities: 40, ClassCrypto: 12, ClassCash: 15},
	data.RegimeOverheating:            {ClassStocks: 12, ClassBonds: 10, ClassRealEstate: 5, ClassCommodities: 40, ClassCrypto: 5, ClassCash: 28},
	data.RegimeStagflationLite:        {ClassStocks: 8, ClassBonds: 10, ClassRealEstate: 5, ClassCommodities: 45, ClassCrypto: 7, ClassCash: 25},
	data.RegimeStagflation:            {ClassStocks: 5, ClassBonds: 10, ClassRealEstate: 2, ClassCommodities: 50, ClassCrypto: 3, ClassCash: 30},
	data.RegimeReflation:              {ClassStocks: 25, ClassBonds: 35, ClassRealEstate: 10, ClassCommodities: 8, ClassCrypto: 7, ClassCash: 15},
	data.RegimeDeflationCrisis:        {ClassStocks: 5, ClassBonds: 40, ClassRealEstate: 2, ClassCommodities: 8, ClassCrypto: 2, ClassCash: 43},
}

// Template returns a copy of the base vector for regime; unknown regimes fall
// back to goldilocks.
func Template(regime data.RegimeLabel) ClassWeights {
	if weights, ok := baseTemplates[regime]; ok {
		return weights.Clone()
	}
	return baseTemplates[data.RegimeGoldilocks].Clone()
}

// DefaultRiskLevel is the identity point of the multiplier table.
const DefaultRiskLevel = 3

// riskMultipliers scales each class percentage by risk appetite; level 3 is
// the identity.
var riskMultipliers = map[int]ClassWeights{
	1: {ClassStocks: 0.6, ClassBonds: 1.4, ClassRealEstate: 0.7, ClassCommodities: 0.8, ClassCrypto: 0.3, ClassCash: 1.5},
	2: {ClassStocks: 0.8, ClassBonds: 1.2, ClassRealEstate: 0.85, ClassCommodities: 0.9, ClassCrypto: 0.6, ClassCash: 1.3},
	3: {ClassStocks: 1.0, ClassBonds: 1.0, ClassRealEstate: 1.0, ClassCommodities: 1.0, ClassCrypto: 1.0, ClassCash: 1.0},
	4: {ClassStocks: 1.2, ClassBonds: 0.8, ClassRealEstate: 1.15, ClassCommodities: 1.1, ClassCrypto: 1.4, ClassCash: 0.7},
	5: {ClassStocks: 1.4, ClassBonds: 0.6, ClassRealEstate: 1.3, ClassCommodities: 1.2, ClassCrypto: 1.8, ClassCash: 0.5},
}

// RiskMultiplier returns the multiplier vector for level; levels outside 1-5
// get the identity.
func RiskMultiplier(level int) ClassWeights {
	if m, ok := riskMultipliers[level]; ok {
		return m
	}
	return riskMultipliers[DefaultRiskLevel]
}

// Normalize scales a vector to whole percentage points summing exactly 100,
// assigning any rounding remainder to the largest class. A vector totaling 0
// is returned unchanged.
func Normalize(weights ClassWeights) ClassWeights {
	total := weights.Sum()
	if total <= 0 {
		return weights.Clone()
	}

	result := make(ClassWeights, len(AssetClasses))
	for _, class := range AssetClasses {
		result[class] = float64(int(weights[class]/total*100 + 0.5))
	}

	diff := 100 - result.Sum()
	if diff != 0 {
		largest := AssetClasses[0]
		for _, class := range AssetClasses[1:] {
			if result[class] > result[largest] {
				largest = class
			}
		}
		result[largest] += diff
	}

	return result
}
