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

package backtest_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/data"
)

// allStocks allocates the whole portfolio to the stock class for every
// regime so single-ticker scenarios are exact.
func allStocks() allocation.RegimeAllocations {
	out := make(allocation.RegimeAllocations, len(data.RegimeLabels))
	for _, regime := range data.RegimeLabels {
		out[regime] = allocation.ClassWeights{
			allocation.ClassStocks:      100,
			allocation.ClassBonds:       0,
			allocation.ClassRealEstate:  0,
			allocation.ClassCommodities: 0,
			allocation.ClassCrypto:      0,
			allocation.ClassCash:        0,
		}
	}
	return out
}

// splitStocksBonds allocates half to stocks and half to bonds for every
// regime.
func splitStocksBonds() allocation.RegimeAllocations {
	out := make(allocation.RegimeAllocations, len(data.RegimeLabels))
	for _, regime := range data.RegimeLabels {
		out[regime] = allocation.ClassWeights{
			allocation.ClassStocks:      50,
			allocation.ClassBonds:       50,
			allocation.ClassRealEstate:  0,
			allocation.ClassCommodities: 0,
			allocation.ClassCrypto:      0,
			allocation.ClassCash:        0,
		}
	}
	return out
}

func spyOnly() []allocation.Instrument {
	return []allocation.Instrument{
		{Ticker: "SPY", Class: allocation.ClassStocks, WeightWithinClass: 1.0},
	}
}

func spyAndIef() []allocation.Instrument {
	return []allocation.Instrument{
		{Ticker: "SPY", Class: allocation.ClassStocks, WeightWithinClass: 1.0},
		{Ticker: "IEF", Class: allocation.ClassBonds, WeightWithinClass: 1.0},
	}
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("when tracking a single instrument", func() {
		var result *backtest.Result

		BeforeEach(func() {
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-02", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-03", AdjClose: 110},
				{Ticker: "SPY", Date: "2024-01-04", AdjClose: 121},
			})
			policy := allocation.NewPolicy(spyOnly(), 3, allStocks(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{
				InitialCapital:  1_000_000,
				Rebalance:       backtest.RebalanceDaily,
				BenchmarkTicker: "SPY",
			})

			var err error
			result, err = sim.Run(ctx)
			Expect(err).To(BeNil())
		})

		It("should track the instrument's return exactly", func() {
			Expect(result.Metrics.TotalReturnPct).To(BeNumerically("~", 21.00, 1e-6))
			Expect(result.Metrics.FinalValue).To(BeNumerically("~", 1_210_000, 1))
		})

		It("should produce one curve point per trading day", func() {
			Expect(result.Curve).To(HaveLen(3))
			Expect(result.Curve[0].PortfolioValue).To(BeNumerically("~", 1_000_000, 1e-6))
			Expect(result.Curve[1].PortfolioValue).To(BeNumerically("~", 1_100_000, 1e-6))
		})

		It("should match the benchmark when they are the same asset", func() {
			for i := range result.Curve {
				Expect(result.Curve[i].BenchmarkValue).To(BeNumerically("~", result.Curve[i].PortfolioValue, 1e-6))
			}
		})

		It("should default to the goldilocks regime with no timeline", func() {
			Expect(result.Curve[0].Regime).To(Equal(data.RegimeGoldilocks))
		})
	})

	Describe("when a price is missing mid-window", func() {
		It("should carry the portfolio and benchmark flat", func() {
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-02", AdjClose: 100},
				{Ticker: "IEF", Date: "2024-01-03", AdjClose: 90},
				{Ticker: "SPY", Date: "2024-01-04", AdjClose: 121},
			})
			policy := allocation.NewPolicy(spyOnly(), 3, allStocks(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{
				InitialCapital:  1_000_000,
				Rebalance:       backtest.RebalanceYearly,
				BenchmarkTicker: "SPY",
			})

			result, err := sim.Run(ctx)
			Expect(err).To(BeNil())
			Expect(result.Curve[1].PortfolioValue).To(BeNumerically("~", 1_000_000, 1e-6))
			Expect(result.Curve[1].BenchmarkValue).To(BeNumerically("~", 1_000_000, 1e-6))
			Expect(result.Curve[2].PortfolioValue).To(BeNumerically("~", 1_210_000, 1e-6))
		})
	})

	Describe("when rebalancing on period boundaries", func() {
		var prices *data.PriceSeries

		BeforeEach(func() {
			prices = data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-04", AdjClose: 100},
				{Ticker: "IEF", Date: "2024-01-04", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-05", AdjClose: 200},
				{Ticker: "IEF", Date: "2024-01-05", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-08", AdjClose: 200},
				{Ticker: "IEF", Date: "2024-01-08", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-09", AdjClose: 200},
				{Ticker: "IEF", Date: "2024-01-09", AdjClose: 200},
			})
		})

		run := func(period backtest.RebalancePeriod) *backtest.Result {
			policy := allocation.NewPolicy(spyAndIef(), 3, splitStocksBonds(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{
				InitialCapital: 1_000_000,
				Rebalance:      period,
			})
			result, err := sim.Run(ctx)
			Expect(err).To(BeNil())
			return result
		}

		It("should rebalance at the ISO week boundary", func() {
			// Jan 8 2024 is a Monday: weekly rebalancing resets to 50/50
			// before the bond leg doubles on Jan 9
			result := run(backtest.RebalanceWeekly)
			Expect(result.Metrics.FinalValue).To(BeNumerically("~", 2_250_000, 1))
		})

		It("should hold initial shares through the window without a boundary", func() {
			result := run(backtest.RebalanceMonthly)
			Expect(result.Metrics.FinalValue).To(BeNumerically("~", 2_000_000, 1))
		})

		It("should produce identical results for identical inputs", func() {
			first := run(backtest.RebalanceWeekly)
			second := run(backtest.RebalanceWeekly)
			Expect(second.Metrics).To(Equal(first.Metrics))
			for i := range first.Curve {
				Expect(second.Curve[i]).To(Equal(first.Curve[i]))
			}
		})

		It("should scale linearly with initial capital", func() {
			policy := allocation.NewPolicy(spyAndIef(), 3, splitStocksBonds(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{
				InitialCapital: 2_000_000,
				Rebalance:      backtest.RebalanceWeekly,
			})
			result, err := sim.Run(ctx)
			Expect(err).To(BeNil())
			Expect(result.Metrics.FinalValue).To(BeNumerically("~", 4_500_000, 1))

			baseline := run(backtest.RebalanceWeekly)
			Expect(result.Metrics.TotalReturnPct).To(BeNumerically("~", baseline.Metrics.TotalReturnPct, 1e-6))
			Expect(result.Metrics.MaxDrawdownPct).To(BeNumerically("~", baseline.Metrics.MaxDrawdownPct, 1e-6))
		})
	})

	Describe("when rebalancing yearly over a three year window", func() {
		It("should reset weights exactly once per calendar year", func() {
			// SPY doubles on the second trading day of each year while IEF
			// stays flat. A 50/50 reset before each doubling caps that day's
			// portfolio gain at exactly 1.5x; a skipped reset would leave SPY
			// overweight and the gain above 1.5x.
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2022-01-03", AdjClose: 100},
				{Ticker: "IEF", Date: "2022-01-03", AdjClose: 100},
				{Ticker: "SPY", Date: "2022-01-04", AdjClose: 200},
				{Ticker: "IEF", Date: "2022-01-04", AdjClose: 100},
				{Ticker: "SPY", Date: "2023-01-03", AdjClose: 200},
				{Ticker: "IEF", Date: "2023-01-03", AdjClose: 100},
				{Ticker: "SPY", Date: "2023-01-04", AdjClose: 400},
				{Ticker: "IEF", Date: "2023-01-04", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-03", AdjClose: 400},
				{Ticker: "IEF", Date: "2024-01-03", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-04", AdjClose: 800},
				{Ticker: "IEF", Date: "2024-01-04", AdjClose: 100},
			})
			policy := allocation.NewPolicy(spyAndIef(), 3, splitStocksBonds(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{
				InitialCapital: 1_000_000,
				Rebalance:      backtest.RebalanceYearly,
			})

			result, err := sim.Run(ctx)
			Expect(err).To(BeNil())

			resets := 0
			for i := 1; i < len(result.Curve); i++ {
				factor := result.Curve[i].PortfolioValue / result.Curve[i-1].PortfolioValue
				if factor > 1 {
					Expect(factor).To(BeNumerically("~", 1.5, 1e-9))
					resets++
				} else {
					Expect(factor).To(BeNumerically("~", 1.0, 1e-9))
				}
			}
			Expect(resets).To(Equal(3))
			Expect(result.Metrics.FinalValue).To(BeNumerically("~", 3_375_000, 1))
		})
	})

	Describe("when the regime changes mid-window", func() {
		It("should switch allocations at the next rebalance", func() {
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-02", AdjClose: 100},
				{Ticker: "IEF", Date: "2024-01-02", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-03", AdjClose: 100},
				{Ticker: "IEF", Date: "2024-01-03", AdjClose: 100},
			})
			custom := allocation.RegimeAllocations{
				data.RegimeGoldilocks: {
					allocation.ClassStocks: 100, allocation.ClassBonds: 0, allocation.ClassRealEstate: 0,
					allocation.ClassCommodities: 0, allocation.ClassCrypto: 0, allocation.ClassCash: 0,
				},
				data.RegimeDeflationCrisis: {
					allocation.ClassStocks: 0, allocation.ClassBonds: 100, allocation.ClassRealEstate: 0,
					allocation.ClassCommodities: 0, allocation.ClassCrypto: 0, allocation.ClassCash: 0,
				},
			}
			timeline := data.NewRegimeTimeline([]data.RegimeRecord{
				{Date: "2024-01-03", Label: data.RegimeDeflationCrisis},
			})
			policy := allocation.NewPolicy(spyAndIef(), 3, custom, nil)
			sim := backtest.NewSimulator(prices, timeline, policy, backtest.Request{
				InitialCapital: 1_000_000,
				Rebalance:      backtest.RebalanceDaily,
			})

			result, err := sim.Run(ctx)
			Expect(err).To(BeNil())
			Expect(result.Curve[0].Regime).To(Equal(data.RegimeGoldilocks))
			Expect(result.Curve[1].Regime).To(Equal(data.RegimeDeflationCrisis))
		})
	})

	Describe("when inputs are insufficient", func() {
		It("should reject windows with fewer than two trading days", func() {
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-02", AdjClose: 100},
			})
			policy := allocation.NewPolicy(spyOnly(), 3, allStocks(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{})

			_, err := sim.Run(ctx)
			Expect(err).To(MatchError(backtest.ErrInsufficientData))
		})

		It("should reject an empty instrument universe", func() {
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-02", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-03", AdjClose: 110},
			})
			policy := allocation.NewPolicy(nil, 3, nil, nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{})

			_, err := sim.Run(ctx)
			Expect(err).To(MatchError(backtest.ErrNoInstruments))
		})
	})

	Describe("when reporting effective allocations", func() {
		It("should cover all eight regimes", func() {
			prices := data.NewPriceSeries([]data.PricePoint{
				{Ticker: "SPY", Date: "2024-01-02", AdjClose: 100},
				{Ticker: "SPY", Date: "2024-01-03", AdjClose: 110},
			})
			policy := allocation.NewPolicy(spyOnly(), 3, allStocks(), nil)
			sim := backtest.NewSimulator(prices, data.NewRegimeTimeline(nil), policy, backtest.Request{
				InitialCapital: 1_000_000,
			})

			result, err := sim.Run(ctx)
			Expect(err).To(BeNil())
			Expect(result.EffectiveAllocations).To(HaveLen(len(data.RegimeLabels)))
			Expect(result.EffectiveAllocations[data.RegimeGoldilocks][allocation.ClassStocks]).To(BeNumerically("~", 100, 1e-6))
		})
	})

	Describe("when downsampling snapshots", func() {
		It("should keep every fifth point plus the final one", func() {
			curve := make(backtest.EquityCurve, 12)
			for i := range curve {
				curve[i] = backtest.CurvePoint{PortfolioValue: float64(i)}
			}
			r := &backtest.Result{Curve: curve}
			snaps := r.Snapshots()
			Expect(snaps).To(HaveLen(4))
			Expect(snaps[0].PortfolioValue).To(BeNumerically("==", 0))
			Expect(snaps[1].PortfolioValue).To(BeNumerically("==", 5))
			Expect(snaps[2].PortfolioValue).To(BeNumerically("==", 10))
			Expect(snaps[3].PortfolioValue).To(BeNumerically("==", 11))
		})
	})
})
