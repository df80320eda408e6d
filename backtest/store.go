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
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"

	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data/database"
)

// ErrRunNotFound indicates the requested backtest run id does not exist.
var ErrRunNotFound = errors.New("backtest run not found")

// RunSummary is the stored header of a completed run; the equity-curve
// snapshots are kept alongside it in a single lz4-compressed column.
type RunSummary struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	StartDate       string          `json:"startDate"`
	EndDate         string          `json:"endDate"`
	InitialCapital  float64         `json:"initialCapital"`
	RiskLevel       int             `json:"riskLevel"`
	Rebalance       RebalancePeriod `json:"rebalancePeriod"`
	BenchmarkTicker string          `json:"benchmarkTicker"`
	Metrics         Metrics         `json:"metrics"`
	Benchmark       Metrics         `json:"benchmark"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// StoredRun is a summary plus its downsampled snapshot series.
type StoredRun struct {
	RunSummary
	EffectiveAllocations json.RawMessage `json:"effectiveAllocations"`
	Snapshots            []CurvePoint    `json:"snapshots"`
}

// SaveRun persists a completed result with its downsampled snapshot series.
func SaveRun(ctx context.Context, r *Result) error {
	allocJSON, err := json.Marshal(r.EffectiveAllocations)
	if err != nil {
		return err
	}

	snapJSON, err := json.Marshal(r.Snapshots())
	if err != nil {
		return err
	}
	snapCompressed, err := common.Compress(snapJSON)
	if err != nil {
		return err
	}

	sql := `INSERT INTO backtest_runs (
		id, name, start_date, end_date, initial_capital, risk_level,
		rebalance_period, benchmark_ticker, final_value, total_return_pct,
		annualized_return_pct, volatility_pct, sharpe_ratio, max_drawdown_pct,
		max_drawdown_start, max_drawdown_end, benchmark_return_pct,
		benchmark_sharpe, benchmark_mdd_pct, allocations_json, snapshots,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17, $18, $19, $20, $21, $22)`
	_, err = database.Pool().Exec(ctx, sql,
		r.ID, r.Name, r.StartDate, r.EndDate, r.InitialCapital, r.RiskLevel,
		string(r.Rebalance), r.BenchmarkTicker, r.Metrics.FinalValue,
		r.Metrics.TotalReturnPct, r.Metrics.AnnualizedReturnPct,
		r.Metrics.VolatilityPct, r.Metrics.SharpeRatio,
		r.Metrics.MaxDrawdownPct, r.Metrics.MaxDrawdownStart,
		r.Metrics.MaxDrawdownEnd, r.Benchmark.TotalReturnPct,
		r.Benchmark.SharpeRatio, r.Benchmark.MaxDrawdownPct,
		allocJSON, snapCompressed, time.Now().UTC(),
	)
	if err != nil {
		log.Error().Stack().Err(err).Str("RunID", r.ID.String()).Msg("could not save backtest run")
		return err
	}

	return nil
}

const summaryColumns = `id, name, start_date, end_date, initial_capital,
	risk_level, rebalance_period, benchmark_ticker, final_value,
	total_return_pct, annualized_return_pct, volatility_pct, sharpe_ratio,
	max_drawdown_pct, max_drawdown_start, max_drawdown_end,
	benchmark_return_pct, benchmark_sharpe, benchmark_mdd_pct, created_at`

func scanSummary(row pgx.Row) (RunSummary, error) {
	var s RunSummary
	var rebalance string
	err := row.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate,
		&s.InitialCapital, &s.RiskLevel, &rebalance, &s.BenchmarkTicker,
		&s.Metrics.FinalValue, &s.Metrics.TotalReturnPct,
		&s.Metrics.AnnualizedReturnPct, &s.Metrics.VolatilityPct,
		&s.Metrics.SharpeRatio, &s.Metrics.MaxDrawdownPct,
		&s.Metrics.MaxDrawdownStart, &s.Metrics.MaxDrawdownEnd,
		&s.Benchmark.TotalReturnPct, &s.Benchmark.SharpeRatio,
		&s.Benchmark.MaxDrawdownPct, &s.CreatedAt)
	s.Rebalance = RebalancePeriod(rebalance)
	return s, err
}

// ListRuns returns all stored run summaries, newest first.
func ListRuns(ctx context.Context) ([]RunSummary, error) {
	sql := `SELECT ` + summaryColumns + ` FROM backtest_runs ORDER BY created_at DESC`
	rows, err := database.Pool().Query(ctx, sql)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("list runs failed")
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunSummary, 0, 32)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			log.Error().Stack().Err(err).Msg("run summary scan failed")
			return nil, err
		}
		runs = append(runs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// GetRun fetches one stored run with its snapshot series.
func GetRun(ctx context.Context, id uuid.UUID) (*StoredRun, error) {
	sql := `SELECT ` + summaryColumns + `, allocations_json, snapshots FROM backtest_runs WHERE id = $1`
	row := database.Pool().QueryRow(ctx, sql, id)

	var run StoredRun
	var rebalance string
	var allocJSON []byte
	var snapCompressed []byte
	err := row.Scan(&run.ID, &run.Name, &run.StartDate, &run.EndDate,
		&run.InitialCapital, &run.RiskLevel, &rebalance, &run.BenchmarkTicker,
		&run.Metrics.FinalValue, &run.Metrics.TotalReturnPct,
		&run.Metrics.AnnualizedReturnPct, &run.Metrics.VolatilityPct,
		&run.Metrics.SharpeRatio, &run.Metrics.MaxDrawdownPct,
		&run.Metrics.MaxDrawdownStart, &run.Metrics.MaxDrawdownEnd,
		&run.Benchmark.TotalReturnPct, &run.Benchmark.SharpeRatio,
		&run.Benchmark.MaxDrawdownPct, &run.CreatedAt,
		&allocJSON, &snapCompressed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		log.Error().Stack().Err(err).Str("RunID", id.String()).Msg("get run failed")
		return nil, err
	}
	run.Rebalance = RebalancePeriod(rebalance)
	run.EffectiveAllocations = allocJSON

	snapJSON, err := common.Decompress(snapCompressed)
	if err != nil {
		log.Error().Stack().Err(err).Str("RunID", id.String()).Msg("could not decompress snapshots")
		return nil, err
	}
	if err := json.Unmarshal(snapJSON, &run.Snapshots); err != nil {
		return nil, err
	}

	return &run, nil
}

// DeleteRun removes a stored run by id.
func DeleteRun(ctx context.Context, id uuid.UUID) error {
	sql := `DELETE FROM backtest_runs WHERE id = $1`
	tag, err := database.Pool().Exec(ctx, sql, id)
	if err != nil {
		log.Error().Stack().Err(err).Str("RunID", id.String()).Msg("delete run failed")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// PurgeRuns removes stored runs created before the cutoff and reports how
// many were deleted.
func PurgeRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	sql := `DELETE FROM backtest_runs WHERE created_at < $1`
	tag, err := database.Pool().Exec(ctx, sql, cutoff)
	if err != nil {
		log.Error().Stack().Err(err).Time("Cutoff", cutoff).Msg("purge runs failed")
		return 0, err
	}
	return tag.RowsAffected(), nil
}
