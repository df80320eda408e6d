// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package allocation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/data"
)

func testUniverse() []allocation.Instrument {
	return []allocation.Instrument{
		{Ticker: "SPY", Class: allocation.ClassStocks, WeightWithinClass: 0.7},
		{Ticker: "QQQ", Class: allocation.ClassStocks, WeightWithinClass: 0.3},
		{Ticker: "TLT", Class: allocation.ClassBonds, WeightWithinClass: 1.0},
		{Ticker: "GLD", Class: allocation.ClassCommodities, WeightWithinClass: 1.0},
	}
}

var _ = Describe("Policy", func() {
	Describe("when resolving class weights", func() {
		It("should sum to 100 for every regime and risk level", func() {
			for level := 1; level <= 5; level++ {
				policy := allocation.NewPolicy(testUniverse(), level, nil, nil)
				for _, regime := range data.RegimeLabels {
					Expect(policy.ClassWeightsFor(regime).Sum()).To(BeNumerically("~", 100, 1e-6))
				}
			}
		})

		It("should match the template at risk level 3 with no overrides", func() {
			policy := allocation.NewPolicy(testUniverse(), 3, nil, nil)
			weights := policy.ClassWeightsFor(data.RegimeGoldilocks)
			template := allocation.Template(data.RegimeGoldilocks)
			for _, class := range allocation.AssetClasses {
				Expect(weights[class]).To(BeNumerically("~", template[class], 1e-6), string(class))
			}
		})

		It("should still sum to 100 with overrides that do not", func() {
			custom := allocation.RegimeAllocations{
				data.RegimeGoldilocks: {
					allocation.ClassStocks: 90,
					allocation.ClassBonds:  90,
				},
			}
			policy := allocation.NewPolicy(testUniverse(), 4, custom, nil)
			Expect(policy.ClassWeightsFor(data.RegimeGoldilocks).Sum()).To(BeNumerically("~", 100, 1e-6))
		})
	})

	Describe("when overrides compete", func() {
		var (
			custom allocation.RegimeAllocations
			saved  allocation.RegimeAllocations
		)

		BeforeEach(func() {
			custom = allocation.RegimeAllocations{
				data.RegimeGoldilocks: {allocation.ClassStocks: 80, allocation.ClassBonds: 0, allocation.ClassRealEstate: 0, allocation.ClassCommodities: 0, allocation.ClassCrypto: 0, allocation.ClassCash: 20},
			}
			saved = allocation.RegimeAllocations{
				data.RegimeGoldilocks:  {allocation.ClassStocks: 10, allocation.ClassBonds: 0, allocation.ClassRealEstate: 0, allocation.ClassCommodities: 0, allocation.ClassCrypto: 0, allocation.ClassCash: 90},
				data.RegimeStagflation: {allocation.ClassStocks: 0, allocation.ClassBonds: 0, allocation.ClassRealEstate: 0, allocation.ClassCommodities: 50, allocation.ClassCrypto: 0, allocation.ClassCash: 50},
			}
		})

		It("should prefer custom over saved for the same regime", func() {
			policy := allocation.NewPolicy(testUniverse(), 3, custom, saved)
			weights := policy.ClassWeightsFor(data.RegimeGoldilocks)
			Expect(weights[allocation.ClassStocks]).To(BeNumerically("~", 80, 1e-6))
			Expect(weights[allocation.ClassCash]).To(BeNumerically("~", 20, 1e-6))
		})

		It("should use saved overrides for regimes without custom entries", func() {
			policy := allocation.NewPolicy(testUniverse(), 3, custom, saved)
			weights := policy.ClassWeightsFor(data.RegimeStagflation)
			Expect(weights[allocation.ClassCommodities]).To(BeNumerically("~", 50, 1e-6))
			Expect(weights[allocation.ClassCash]).To(BeNumerically("~", 50, 1e-6))
		})

		It("should fall back to the template when neither table has the regime", func() {
			policy := allocation.NewPolicy(testUniverse(), 3, custom, saved)
			template := allocation.Template(data.RegimeReflation)
			weights := policy.ClassWeightsFor(data.RegimeReflation)
			Expect(weights[allocation.ClassBonds]).To(BeNumerically("~", template[allocation.ClassBonds], 1e-6))
		})
	})

	Describe("when converting persisted override rows", func() {
		It("should drop rows with unknown regimes or classes", func() {
			overrides := allocation.OverridesFromRows([]data.OverrideRow{
				{Regime: data.RegimeGoldilocks, AssetClass: "stocks", WeightPct: 60},
				{Regime: "unknown_regime", AssetClass: "stocks", WeightPct: 40},
				{Regime: data.RegimeGoldilocks, AssetClass: "collectibles", WeightPct: 15},
			})
			Expect(overrides).To(HaveLen(1))
			Expect(overrides[data.RegimeGoldilocks]).To(HaveLen(1))
			Expect(overrides[data.RegimeGoldilocks][allocation.ClassStocks]).To(BeNumerically("~", 60))
		})
	})

	Describe("when resolving effective ticker weights", func() {
		It("should split class weight by within-class proportions", func() {
			custom := allocation.RegimeAllocations{
				data.RegimeGoldilocks: {allocation.ClassStocks: 50, allocation.ClassBonds: 0, allocation.ClassRealEstate: 0, allocation.ClassCommodities: 0, allocation.ClassCrypto: 0, allocation.ClassCash: 50},
			}
			policy := allocation.NewPolicy(testUniverse(), 3, custom, nil)
			weights := policy.EffectiveWeights(data.RegimeGoldilocks)
			Expect(weights.Cash).To(BeNumerically("~", 0.5, 1e-9))
			Expect(weights.Tickers["SPY"]).To(BeNumerically("~", 0.35, 1e-9))
			Expect(weights.Tickers["QQQ"]).To(BeNumerically("~", 0.15, 1e-9))
		})

		It("should skip instruments in classes allocated zero", func() {
			custom := allocation.RegimeAllocations{
				data.RegimeGoldilocks: {allocation.ClassStocks: 100, allocation.ClassBonds: 0, allocation.ClassRealEstate: 0, allocation.ClassCommodities: 0, allocation.ClassCrypto: 0, allocation.ClassCash: 0},
			}
			policy := allocation.NewPolicy(testUniverse(), 3, custom, nil)
			weights := policy.EffectiveWeights(data.RegimeGoldilocks)
			Expect(weights.Tickers).NotTo(HaveKey("TLT"))
			Expect(weights.Tickers).NotTo(HaveKey("GLD"))
		})

		It("should have cash plus ticker weights near 1 with full class coverage", func() {
			custom := allocation.RegimeAllocations{
				data.RegimeGoldilocks: {allocation.ClassStocks: 40, allocation.ClassBonds: 30, allocation.ClassRealEstate: 0, allocation.ClassCommodities: 20, allocation.ClassCrypto: 0, allocation.ClassCash: 10},
			}
			policy := allocation.NewPolicy(testUniverse(), 3, custom, nil)
			weights := policy.EffectiveWeights(data.RegimeGoldilocks)
			total := weights.Cash
			for _, w := range weights.Tickers {
				total += w
			}
			Expect(total).To(BeNumerically("~", 1.0, 1e-6))
		})
	})
})

var _ = Describe("Universe", func() {
	Describe("when filtering by price coverage", func() {
		It("should renormalize within-class weights of survivors", func() {
			available := func(ticker string) bool { return ticker != "QQQ" }
			kept := allocation.FilterAvailable(testUniverse(), available)
			Expect(kept).To(HaveLen(3))
			Expect(kept[0].Ticker).To(Equal("SPY"))
			Expect(kept[0].WeightWithinClass).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should drop whole classes with no coverage", func() {
			available := func(ticker string) bool { return ticker == "TLT" }
			kept := allocation.FilterAvailable(testUniverse(), available)
			Expect(kept).To(HaveLen(1))
			Expect(kept[0].Class).To(Equal(allocation.ClassBonds))
		})

		It("should keep every instrument when everything trades", func() {
			kept := allocation.FilterAvailable(allocation.DefaultUniverse(), func(string) bool { return true })
			Expect(kept).To(HaveLen(len(allocation.DefaultUniverse())))
		})
	})
})
