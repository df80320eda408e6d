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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data"
)

// RebalancePeriod selects how often holdings are reset to target weights.
type RebalancePeriod string

const (
	RebalanceDaily     RebalancePeriod = "daily"
	RebalanceWeekly    RebalancePeriod = "weekly"
	RebalanceMonthly   RebalancePeriod = "monthly"
	RebalanceQuarterly RebalancePeriod = "quarterly"
	RebalanceYearly    RebalancePeriod = "yearly"
)

// IsValid reports whether p is a known rebalance period.
func (p RebalancePeriod) IsValid() bool {
	switch p {
	case RebalanceDaily, RebalanceWeekly, RebalanceMonthly, RebalanceQuarterly, RebalanceYearly:
		return true
	}
	return false
}

// Request describes one backtest invocation.
type Request struct {
	Name              string                       `json:"name,omitempty"`
	StartDate         string                       `json:"startDate"`
	EndDate           string                       `json:"endDate"`
	InitialCapital    float64                      `json:"initialCapital"`
	RiskLevel         int                          `json:"riskLevel"`
	Rebalance         RebalancePeriod              `json:"rebalancePeriod"`
	BenchmarkTicker   string                       `json:"benchmarkTicker"`
	CustomAllocations allocation.RegimeAllocations `json:"customAllocations,omitempty"`
}

// ApplyDefaults fills unset request fields with the standard values.
func (req *Request) ApplyDefaults() {
	if req.StartDate == "" {
		req.StartDate = "2020-01-01"
	}
	if req.EndDate == "" {
		req.EndDate = time.Now().In(common.GetTimezone()).Format(common.DateFormat)
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("Backtest %s ~ %s", req.StartDate, req.EndDate)
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = 100_000_000
	}
	if req.RiskLevel == 0 {
		req.RiskLevel = allocation.DefaultRiskLevel
	}
	if !req.Rebalance.IsValid() {
		req.Rebalance = RebalanceMonthly
	}
	if req.BenchmarkTicker == "" {
		req.BenchmarkTicker = "SPY"
	}
}

// CurvePoint is one day of the equity curve.
type CurvePoint struct {
	Date           string           `json:"date"`
	PortfolioValue float64          `json:"portfolioValue"`
	BenchmarkValue float64          `json:"benchmarkValue"`
	Regime         data.RegimeLabel `json:"regime"`
	DrawdownPct    float64          `json:"drawdownPct"`
}

// EquityCurve is the full daily series produced by one simulation.
type EquityCurve []CurvePoint

// Metrics summarize an equity curve. Percentages are rounded to 2 decimals,
// Sharpe to 4.
type Metrics struct {
	FinalValue          float64 `json:"finalValue"`
	TotalReturnPct      float64 `json:"totalReturnPct"`
	AnnualizedReturnPct float64 `json:"annualizedReturnPct"`
	VolatilityPct       float64 `json:"volatilityPct"`
	SharpeRatio         float64 `json:"sharpeRatio"`
	MaxDrawdownPct      float64 `json:"maxDrawdownPct"`
	MaxDrawdownStart    string  `json:"maxDrawdownStart"`
	MaxDrawdownEnd      string  `json:"maxDrawdownEnd"`
}

// Result is the outcome of one simulation run.
type Result struct {
	ID                   uuid.UUID                    `json:"id"`
	Name                 string                       `json:"name"`
	StartDate            string                       `json:"startDate"`
	EndDate              string                       `json:"endDate"`
	InitialCapital       float64                      `json:"initialCapital"`
	RiskLevel            int                          `json:"riskLevel"`
	Rebalance            RebalancePeriod              `json:"rebalancePeriod"`
	BenchmarkTicker      string                       `json:"benchmarkTicker"`
	Metrics              Metrics                      `json:"metrics"`
	Benchmark            Metrics                      `json:"benchmark"`
	EffectiveAllocations allocation.RegimeAllocations `json:"effectiveAllocations"`
	Curve                EquityCurve                  `json:"equityCurve,omitempty"`
}

// snapshotStride controls equity-curve downsampling for storage.
const snapshotStride = 5

// Snapshots returns every snapshotStride-th curve point plus the final one.
func (r *Result) Snapshots() []CurvePoint {
	points := make([]CurvePoint, 0, len(r.Curve)/snapshotStride+2)
	for i := 0; i < len(r.Curve); i += snapshotStride {
		points = append(points, r.Curve[i])
	}

	lastIdx := len(r.Curve) - 1
	if lastIdx > 0 && lastIdx%snapshotStride != 0 {
		points = append(points, r.Curve[lastIdx])
	}

	return points
}
