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

package optimize

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data"
)

// ErrInsufficientData indicates the window holds fewer aligned trading days
// than the optimizer needs for meaningful scores.
var ErrInsufficientData = errors.New("not enough price data to optimize")

// minTradingDays is the optimizer's precondition on the aligned date axis.
const minTradingDays = 20

// maxClassPct bounds every coordinate of a candidate vector.
const maxClassPct = 80

// Objective selects the scalar the optimizer maximizes.
type Objective string

const (
	ObjectiveSharpe Objective = "sharpe"
	ObjectiveReturn Objective = "return"
	ObjectiveMDD    Objective = "mdd"
)

// IsValid reports whether o is a supported objective.
func (o Objective) IsValid() bool {
	switch o {
	case ObjectiveSharpe, ObjectiveReturn, ObjectiveMDD:
		return true
	}
	return false
}

// Score collapses metrics to the scalar being maximized. Drawdown is negated
// so that a higher score is always better.
func (o Objective) Score(m backtest.Metrics) float64 {
	switch o {
	case ObjectiveReturn:
		return m.TotalReturnPct
	case ObjectiveMDD:
		return -m.MaxDrawdownPct
	default:
		return m.SharpeRatio
	}
}

// Request describes one optimization invocation.
type Request struct {
	StartDate       string                       `json:"startDate"`
	EndDate         string                       `json:"endDate"`
	InitialCapital  float64                      `json:"initialCapital"`
	RiskLevel       int                          `json:"riskLevel"`
	Rebalance       backtest.RebalancePeriod     `json:"rebalancePeriod"`
	BenchmarkTicker string                       `json:"benchmarkTicker"`
	Target          Objective                    `json:"optimizeTarget"`
	BaseAllocations allocation.RegimeAllocations `json:"baseAllocations,omitempty"`
}

// Result is the best policy found along with observability counters.
type Result struct {
	Allocations allocation.RegimeAllocations `json:"allocations"`
	Metrics     backtest.Metrics             `json:"metrics"`
	Iterations  int                          `json:"iterations"`
	Target      Objective                    `json:"target"`
	RegimesUsed []data.RegimeLabel           `json:"regimesUsed"`
}

// Optimizer searches per-regime allocation vectors by bounded greedy local
// search. Every candidate is scored through the same Simulator used for
// direct backtests, so price-fallback semantics are identical on both paths
// and candidates honor the requested rebalance period.
type Optimizer struct {
	Prices      *data.PriceSeries
	Regimes     *data.RegimeTimeline
	Instruments []allocation.Instrument
	Request     Request
}

// ApplyDefaults fills unset request fields; defaults mirror the backtest
// defaults.
func (req *Request) ApplyDefaults() {
	if req.StartDate == "" {
		req.StartDate = "2020-01-01"
	}
	if req.EndDate == "" {
		req.EndDate = time.Now().In(common.GetTimezone()).Format(common.DateFormat)
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = 100_000_000
	}
	if req.RiskLevel == 0 {
		req.RiskLevel = allocation.DefaultRiskLevel
	}
	if !req.Rebalance.IsValid() {
		req.Rebalance = backtest.RebalanceMonthly
	}
	if req.BenchmarkTicker == "" {
		req.BenchmarkTicker = "SPY"
	}
	if !req.Target.IsValid() {
		req.Target = ObjectiveSharpe
	}
}

// New builds an optimizer over an already loaded market window.
func New(prices *data.PriceSeries, regimes *data.RegimeTimeline, instruments []allocation.Instrument, req Request) *Optimizer {
	req.ApplyDefaults()
	return &Optimizer{
		Prices:      prices,
		Regimes:     regimes,
		Instruments: instruments,
		Request:     req,
	}
}

// search is the mutable best-so-far threaded through the phases.
type search struct {
	best       allocation.RegimeAllocations
	metrics    backtest.Metrics
	score      float64
	iterations int
	stopped    bool
}

// Run executes the three search phases and returns the best policy found.
// When ctx expires mid-search the best-so-far result is returned rather than
// an error.
func (opt *Optimizer) Run(ctx context.Context) (*Result, error) {
	ctx, span := otel.Tracer("rv-api").Start(ctx, "optimizer.Run")
	defer span.End()

	if opt.Prices.NumDates() < minTradingDays {
		return nil, ErrInsufficientData
	}
	if len(opt.Instruments) == 0 {
		return nil, backtest.ErrNoInstruments
	}

	regimes := opt.regimesInWindow()

	base := make(allocation.RegimeAllocations, len(regimes))
	for _, regime := range regimes {
		if vec, ok := opt.Request.BaseAllocations[regime]; ok {
			base[regime] = vec.Clone()
		} else {
			base[regime] = allocation.Template(regime)
		}
	}

	baseline, err := opt.evaluate(ctx, base)
	if err != nil {
		return nil, err
	}

	s := &search{
		best:    base,
		metrics: baseline,
		score:   opt.Request.Target.Score(baseline),
	}

	// phase 1: coordinate-pair hill climbing, coarse to fine
	opt.hillClimb(ctx, s, regimes, []float64{10, 7, 5, 3, 2, 1}, 30)

	// phase 2: probe aggressive presets per regime
	opt.probePresets(ctx, s, regimes)

	// phase 3: fine-tune around the preset result
	opt.hillClimb(ctx, s, regimes, []float64{5, 3, 2, 1}, 20)

	log.Debug().
		Int("Iterations", s.iterations).
		Float64("Score", s.score).
		Bool("Stopped", s.stopped).
		Msg("optimizer finished")

	return &Result{
		Allocations: s.best,
		Metrics:     s.metrics,
		Iterations:  s.iterations,
		Target:      opt.Request.Target,
		RegimesUsed: regimes,
	}, nil
}

// regimesInWindow lists the regime labels actually active on the price axis,
// in first-occurrence order.
func (opt *Optimizer) regimesInWindow() []data.RegimeLabel {
	seen := make(map[data.RegimeLabel]bool, len(data.RegimeLabels))
	regimes := make([]data.RegimeLabel, 0, len(data.RegimeLabels))
	for _, date := range opt.Prices.Dates() {
		label := opt.Regimes.LabelOnOrBefore(date)
		if !seen[label] {
			seen[label] = true
			regimes = append(regimes, label)
		}
	}
	return regimes
}

// evaluate scores one candidate through a full simulation.
func (opt *Optimizer) evaluate(ctx context.Context, candidate allocation.RegimeAllocations) (backtest.Metrics, error) {
	policy := allocation.NewPolicy(opt.Instruments, opt.Request.RiskLevel, candidate, nil)
	sim := backtest.NewSimulator(opt.Prices, opt.Regimes, policy, backtest.Request{
		StartDate:       opt.Request.StartDate,
		EndDate:         opt.Request.EndDate,
		InitialCapital:  opt.Request.InitialCapital,
		RiskLevel:       opt.Request.RiskLevel,
		Rebalance:       opt.Request.Rebalance,
		BenchmarkTicker: opt.Request.BenchmarkTicker,
	})
	result, err := sim.Run(ctx)
	if err != nil {
		return backtest.Metrics{}, err
	}
	return result.Metrics, nil
}

// tryCandidate scores a candidate and adopts it when it strictly improves
// the running best. It reports whether the candidate was adopted.
func (opt *Optimizer) tryCandidate(ctx context.Context, s *search, candidate allocation.RegimeAllocations) bool {
	metrics, err := opt.evaluate(ctx, candidate)
	if err != nil {
		log.Warn().Err(err).Msg("candidate evaluation failed; skipping")
		return false
	}
	score := opt.Request.Target.Score(metrics)
	if score > s.score {
		s.best = candidate
		s.metrics = metrics
		s.score = score
		return true
	}
	return false
}

// hillClimb sweeps every (regime, class pair, direction) transfer of step
// percentage points, adopting the first improvement found and repeating the
// sweep at the same step while it keeps improving, up to maxSweeps per step.
func (opt *Optimizer) hillClimb(ctx context.Context, s *search, regimes []data.RegimeLabel, steps []float64, maxSweeps int) {
	for _, step := range steps {
		improved := true
		sweeps := 0

		for improved && sweeps < maxSweeps {
			if s.stopped {
				return
			}
			improved = false
			sweeps++
			s.iterations++

			for _, regime := range regimes {
				for i := 0; i < len(allocation.AssetClasses); i++ {
					for j := i + 1; j < len(allocation.AssetClasses); j++ {
						for _, direction := range []float64{1, -1} {
							if ctx.Err() != nil {
								s.stopped = true
								return
							}

							from := allocation.AssetClasses[i]
							to := allocation.AssetClasses[j]
							shift := step * direction

							trial := s.best.Clone()
							fromVal := trial[regime][from]
							toVal := trial[regime][to]

							if fromVal-shift < 0 || toVal+shift < 0 {
								continue
							}
							if fromVal-shift > maxClassPct || toVal+shift > maxClassPct {
								continue
							}

							trial[regime][from] = fromVal - shift
							trial[regime][to] = toVal + shift

							if opt.tryCandidate(ctx, s, trial) {
								improved = true
							}
						}
					}
				}
			}
		}
	}
}

// probePresets tries each aggressive preset as a full replacement of one
// regime's vector, independently of the other regimes.
func (opt *Optimizer) probePresets(ctx context.Context, s *search, regimes []data.RegimeLabel) {
	for _, regime := range regimes {
		for _, preset := range aggressivePresets[regime] {
			if ctx.Err() != nil {
				s.stopped = true
				return
			}

			trial := s.best.Clone()
			trial[regime] = allocation.Normalize(preset)
			opt.tryCandidate(ctx, s, trial)
		}
	}
}
