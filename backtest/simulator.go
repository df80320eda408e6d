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

package backtest

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data"
)

var (
	// ErrInsufficientData indicates fewer than 2 aligned trading days.
	ErrInsufficientData = errors.New("not enough price data in the requested window")
	// ErrNoInstruments indicates no universe ticker has price coverage.
	ErrNoInstruments = errors.New("no instruments with price data in the requested window")
)

// state is the mutable portfolio threaded through the date loop: uninvested
// cash plus fractional share counts per ticker. Holdings are only reset on
// rebalance dates; between them the state drifts with prices.
type state struct {
	cash     float64
	holdings map[string]float64
}

// markToMarket values the portfolio at date using fallback prices. A ticker
// with no price on or before date contributes nothing that day; its shares
// survive for the next day it trades.
func (s *state) markToMarket(prices *data.PriceSeries, date string) float64 {
	value := s.cash
	for ticker, shares := range s.holdings {
		if price, ok := prices.PriceOn(ticker, date); ok {
			value += shares * price
		}
	}
	return value
}

// Simulator walks the combined price-date axis, rebalancing on period
// boundaries and marking to market daily. It is a pure function of its
// inputs: identical inputs produce identical equity curves.
type Simulator struct {
	Prices  *data.PriceSeries
	Regimes *data.RegimeTimeline
	Policy  *allocation.Policy
	Request Request
}

// NewSimulator builds a simulator; req defaults are applied here.
func NewSimulator(prices *data.PriceSeries, regimes *data.RegimeTimeline, policy *allocation.Policy, req Request) *Simulator {
	req.ApplyDefaults()
	return &Simulator{
		Prices:  prices,
		Regimes: regimes,
		Policy:  policy,
		Request: req,
	}
}

// Run executes the simulation and computes metrics for both the portfolio
// and the buy-and-hold benchmark.
func (sim *Simulator) Run(ctx context.Context) (*Result, error) {
	_, span := otel.Tracer("rv-api").Start(ctx, "simulator.Run")
	defer span.End()

	axis := sim.Prices.Dates()
	if len(axis) < 2 {
		return nil, ErrInsufficientData
	}
	if len(sim.Policy.Instruments()) == 0 {
		return nil, ErrNoInstruments
	}

	req := sim.Request

	// effective weights only change with the regime; resolve each label once
	weightsByRegime := make(map[data.RegimeLabel]allocation.Weights)
	weightsFor := func(regime data.RegimeLabel) allocation.Weights {
		if w, ok := weightsByRegime[regime]; ok {
			return w
		}
		w := sim.Policy.EffectiveWeights(regime)
		weightsByRegime[regime] = w
		return w
	}

	port := &state{holdings: make(map[string]float64)}
	curve := make(EquityCurve, 0, len(axis))
	values := make([]float64, 0, len(axis))
	benchValues := make([]float64, 0, len(axis))
	var benchInitial float64

	var prevDay time.Time
	first := true

	for _, date := range axis {
		day, err := time.Parse(common.DateFormat, date)
		if err != nil {
			log.Warn().Str("Date", date).Msg("skipping unparseable date on price axis")
			continue
		}

		// benchmark: buy-and-hold compounding seeded on its first exact
		// price; carried flat on days it does not trade
		if bp, ok := sim.Prices.PriceExact(req.BenchmarkTicker, date); ok {
			if benchInitial == 0 {
				benchInitial = bp
			}
			benchValues = append(benchValues, req.InitialCapital*(bp/benchInitial))
		} else if len(benchValues) > 0 {
			benchValues = append(benchValues, benchValues[len(benchValues)-1])
		} else {
			benchValues = append(benchValues, req.InitialCapital)
		}

		regime := sim.Regimes.LabelOnOrBefore(date)

		if first || crossedBoundary(prevDay, day, req.Rebalance) {
			value := req.InitialCapital
			if len(port.holdings) > 0 || port.cash > 0 {
				value = port.markToMarket(sim.Prices, date)
			}

			weights := weightsFor(regime)
			port.cash = value * weights.Cash
			budget := value - port.cash

			for ticker := range port.holdings {
				delete(port.holdings, ticker)
			}

			// exclude tickers without a price today and renormalize the
			// rest, preserving their relative proportions
			var availableWeight float64
			for ticker, weight := range weights.Tickers {
				if price, ok := sim.Prices.PriceOn(ticker, date); ok && price > 0 {
					availableWeight += weight
				}
			}
			if availableWeight > 0 {
				for ticker, weight := range weights.Tickers {
					if price, ok := sim.Prices.PriceOn(ticker, date); ok && price > 0 {
						port.holdings[ticker] = budget * (weight / availableWeight) / price
					}
				}
			}
		}

		value := port.markToMarket(sim.Prices, date)
		values = append(values, value)
		curve = append(curve, CurvePoint{
			Date:           date,
			PortfolioValue: value,
			BenchmarkValue: benchValues[len(benchValues)-1],
			Regime:         regime,
		})

		prevDay = day
		first = false
	}

	if len(values) < 2 {
		return nil, ErrInsufficientData
	}

	dates := make([]string, len(curve))
	for i := range curve {
		dates[i] = curve[i].Date
	}

	metrics, drawdowns := ComputeMetrics(values, dates, req.InitialCapital)
	for i := range curve {
		curve[i].DrawdownPct = drawdowns[i]
	}
	benchMetrics, _ := ComputeMetrics(benchValues, dates, req.InitialCapital)

	return &Result{
		ID:                   uuid.New(),
		Name:                 req.Name,
		StartDate:            dates[0],
		EndDate:              dates[len(dates)-1],
		InitialCapital:       req.InitialCapital,
		RiskLevel:            req.RiskLevel,
		Rebalance:            req.Rebalance,
		BenchmarkTicker:      req.BenchmarkTicker,
		Metrics:              metrics,
		Benchmark:            benchMetrics,
		EffectiveAllocations: sim.effectiveAllocations(weightsFor),
		Curve:                curve,
	}, nil
}

// crossedBoundary reports whether a rebalance period boundary lies between
// prev and cur. Weekly boundaries follow the ISO week calendar.
func crossedBoundary(prev time.Time, cur time.Time, period RebalancePeriod) bool {
	switch period {
	case RebalanceDaily:
		return true
	case RebalanceWeekly:
		py, pw := prev.ISOWeek()
		cy, cw := cur.ISOWeek()
		return py != cy || pw != cw
	case RebalanceQuarterly:
		return prev.Year() != cur.Year() || (int(prev.Month())-1)/3 != (int(cur.Month())-1)/3
	case RebalanceYearly:
		return prev.Year() != cur.Year()
	default: // monthly
		return prev.Year() != cur.Year() || prev.Month() != cur.Month()
	}
}

// effectiveAllocations reconstructs the class percentages actually applied
// for every regime, reflecting instrument availability. Values are rounded
// to one decimal for display and storage.
func (sim *Simulator) effectiveAllocations(weightsFor func(data.RegimeLabel) allocation.Weights) allocation.RegimeAllocations {
	out := make(allocation.RegimeAllocations, len(data.RegimeLabels))
	for _, regime := range data.RegimeLabels {
		weights := weightsFor(regime)
		classTotals := allocation.ClassWeights{
			allocation.ClassCash: weights.Cash * 100,
		}
		for _, inst := range sim.Policy.Instruments() {
			if inst.Class == allocation.ClassCash {
				continue
			}
			classTotals[inst.Class] += weights.Tickers[inst.Ticker] * 100
		}
		for class := range classTotals {
			classTotals[class] = math.Round(classTotals[class]*10) / 10
		}
		out[regime] = classTotals
	}
	return out
}
