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

// Weights is the resolved output of a policy for one regime: fractional
// weights per ticker plus the fraction held as cash. Ticker weights and
// cashWeight together sum to 1 when every class has instrument coverage.
type Weights struct {
	Tickers map[string]float64
	Cash    float64
}

// Policy resolves per-regime asset-class percentages into per-ticker weights.
// Override precedence per regime and class: per-run custom overrides, then
// persisted user overrides, then the built-in template. A custom entry for a
// regime suppresses saved overrides for that regime entirely.
type Policy struct {
	instruments []Instrument
	riskLevel   int
	custom      RegimeAllocations
	saved       RegimeAllocations
}

// NewPolicy builds a policy over an instrument universe that has already been
// filtered to tickers with price coverage (see FilterAvailable).
func NewPolicy(instruments []Instrument, riskLevel int, custom RegimeAllocations, saved RegimeAllocations) *Policy {
	return &Policy{
		instruments: instruments,
		riskLevel:   riskLevel,
		custom:      custom,
		saved:       saved,
	}
}

// Instruments returns the universe the policy allocates over.
func (p *Policy) Instruments() []Instrument {
	return p.instruments
}

// OverridesFromRows converts persisted override rows into an allocation
// table, dropping rows with unknown regime or asset-class keys.
func OverridesFromRows(rows []data.OverrideRow) RegimeAllocations {
	out := make(RegimeAllocations)
	for _, row := range rows {
		class := AssetClass(row.AssetClass)
		if !row.Regime.IsValid() || !class.IsValid() {
			continue
		}
		if _, ok := out[row.Regime]; !ok {
			out[row.Regime] = make(ClassWeights)
		}
		out[row.Regime][class] = row.WeightPct
	}
	return out
}

// ClassWeightsFor resolves the effective class percentages for one regime:
// template, override merge, risk multiplier, renormalize to 100. A vector
// whose risk-adjusted total is 0 skips renormalization.
func (p *Policy) ClassWeightsFor(regime data.RegimeLabel) ClassWeights {
	template := Template(regime)

	if custom, ok := p.custom[regime]; ok {
		for class, pct := range custom {
			if class.IsValid() {
				template[class] = pct
			}
		}
	} else if saved, ok := p.saved[regime]; ok {
		for class, pct := range saved {
			if class.IsValid() {
				template[class] = pct
			}
		}
	}

	multiplier := RiskMultiplier(p.riskLevel)
	adjusted := make(ClassWeights, len(template))
	var total float64
	for class, pct := range template {
		m, ok := multiplier[class]
		if !ok {
			m = 1.0
		}
		adjusted[class] = pct * m
		total += adjusted[class]
	}

	if total > 0 {
		for class := range adjusted {
			adjusted[class] = adjusted[class] / total * 100
		}
	}

	return adjusted
}

// EffectiveWeights resolves per-ticker fractional weights and the cash
// fraction for one regime. Instruments in a class allocated 0% are skipped.
func (p *Policy) EffectiveWeights(regime data.RegimeLabel) Weights {
	adjusted := p.ClassWeightsFor(regime)

	weights := Weights{
		Tickers: make(map[string]float64, len(p.instruments)),
		Cash:    adjusted[ClassCash] / 100,
	}

	for _, inst := range p.instruments {
		if inst.Class == ClassCash {
			continue
		}
		classPct := adjusted[inst.Class]
		if classPct == 0 {
			continue
		}
		weights.Tickers[inst.Ticker] = classPct * inst.WeightWithinClass / 100
	}

	return weights
}
