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
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/regime-vault/rv-api/common"
)

const (
	tradingDaysPerYear = 252
	annualRiskFree     = 0.04 // fixed risk-free assumption for Sharpe
)

// ComputeMetrics summarizes a daily value series. The returned slice holds
// the per-day drawdown percentage, aligned with values. Fewer than 2 points
// yields zeroed metrics with FinalValue = initialCapital; this is not an
// error.
func ComputeMetrics(values []float64, dates []string, initialCapital float64) (Metrics, []float64) {
	firstDate := ""
	if len(dates) > 0 {
		firstDate = dates[0]
	}

	if len(values) < 2 {
		return Metrics{
			FinalValue:       initialCapital,
			MaxDrawdownStart: firstDate,
			MaxDrawdownEnd:   firstDate,
		}, nil
	}

	finalValue := values[len(values)-1]
	totalReturn := (finalValue/initialCapital - 1) * 100

	years := yearsBetween(dates[0], dates[len(dates)-1])
	annualizedReturn := (math.Pow(finalValue/initialCapital, 1/years) - 1) * 100

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, values[i]/values[i-1]-1)
		}
	}

	var meanDaily, dailyVol float64
	if len(returns) > 0 {
		meanDaily = stat.Mean(returns, nil)
		// the daily return series is the full population, not a sample
		dailyVol = stat.PopStdDev(returns, nil)
	}
	annualizedVol := dailyVol * math.Sqrt(tradingDaysPerYear) * 100

	var sharpe float64
	if dailyVol > 0 {
		dailyRf := annualRiskFree / tradingDaysPerYear
		sharpe = (meanDaily - dailyRf) / dailyVol * math.Sqrt(tradingDaysPerYear)
	}

	peak := values[0]
	maxDD := 0.0
	maxDDStart := dates[0]
	maxDDEnd := dates[0]
	currentDDStart := dates[0]
	drawdowns := make([]float64, len(values))

	for i, v := range values {
		if v > peak {
			peak = v
			currentDDStart = dates[i]
		}
		var dd float64
		if peak > 0 {
			dd = (peak - v) / peak * 100
		}
		drawdowns[i] = dd
		if dd > maxDD {
			maxDD = dd
			maxDDStart = currentDDStart
			maxDDEnd = dates[i]
		}
	}

	return Metrics{
		FinalValue:          round2(finalValue),
		TotalReturnPct:      round2(totalReturn),
		AnnualizedReturnPct: round2(annualizedReturn),
		VolatilityPct:       round2(annualizedVol),
		SharpeRatio:         round4(sharpe),
		MaxDrawdownPct:      round2(maxDD),
		MaxDrawdownStart:    maxDDStart,
		MaxDrawdownEnd:      maxDDEnd,
	}, drawdowns
}

// yearsBetween measures the span in 365.25-day years, floored at 0.01 so
// sub-day windows cannot blow up annualization.
func yearsBetween(startDate string, endDate string) float64 {
	start, err1 := time.Parse(common.DateFormat, startDate)
	end, err2 := time.Parse(common.DateFormat, endDate)
	if err1 != nil || err2 != nil {
		return 0.01
	}
	days := end.Sub(start).Hours() / 24
	return math.Max(days/365.25, 0.01)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
