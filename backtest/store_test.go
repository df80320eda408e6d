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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/pashagolub/pgxmock"

	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/common"
)

var storeColumns = []string{
	"id", "name", "start_date", "end_date", "initial_capital",
	"risk_level", "rebalance_period", "benchmark_ticker", "final_value",
	"total_return_pct", "annualized_return_pct", "volatility_pct",
	"sharpe_ratio", "max_drawdown_pct", "max_drawdown_start",
	"max_drawdown_end", "benchmark_return_pct", "benchmark_sharpe",
	"benchmark_mdd_pct", "created_at",
}

var _ = Describe("Store", func() {
	var (
		ctx    context.Context
		runID  uuid.UUID
		result *backtest.Result
	)

	BeforeEach(func() {
		ctx = context.Background()
		runID = uuid.New()
		result = &backtest.Result{
			ID:              runID,
			Name:            "Backtest 2024-01-01 ~ 2024-06-30",
			StartDate:       "2024-01-01",
			EndDate:         "2024-06-30",
			InitialCapital:  1_000_000,
			RiskLevel:       3,
			Rebalance:       backtest.RebalanceMonthly,
			BenchmarkTicker: "SPY",
			Metrics: backtest.Metrics{
				FinalValue:     1_210_000,
				TotalReturnPct: 21,
			},
			Curve: backtest.EquityCurve{
				{Date: "2024-01-02", PortfolioValue: 1_000_000, BenchmarkValue: 1_000_000},
				{Date: "2024-01-03", PortfolioValue: 1_210_000, BenchmarkValue: 1_100_000},
			},
		}
	})

	Describe("when saving a run", func() {
		It("should insert one row", func() {
			dbPool.ExpectExec("INSERT INTO backtest_runs").
				WillReturnResult(pgxmock.NewResult("INSERT", 1))

			Expect(backtest.SaveRun(ctx, result)).To(Succeed())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("when loading a run", func() {
		It("should return ErrRunNotFound for an unknown id", func() {
			dbPool.ExpectQuery("SELECT (.+) FROM backtest_runs WHERE id").
				WithArgs(runID).
				WillReturnError(pgx.ErrNoRows)

			_, err := backtest.GetRun(ctx, runID)
			Expect(err).To(MatchError(backtest.ErrRunNotFound))
		})

		It("should restore the summary and snapshots", func() {
			snapshots := []backtest.CurvePoint{
				{Date: "2024-01-02", PortfolioValue: 1_000_000, BenchmarkValue: 1_000_000},
				{Date: "2024-01-03", PortfolioValue: 1_210_000, BenchmarkValue: 1_100_000},
			}
			snapJSON, err := json.Marshal(snapshots)
			Expect(err).To(BeNil())
			snapCompressed, err := common.Compress(snapJSON)
			Expect(err).To(BeNil())

			allocJSON := []byte(`{"goldilocks":{"stocks":100}}`)
			createdAt := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

			cols := append(append([]string{}, storeColumns...), "allocations_json", "snapshots")
			rows := pgxmock.NewRows(cols).AddRow(
				runID, "Backtest 2024-01-01 ~ 2024-06-30", "2024-01-01",
				"2024-06-30", 1_000_000.0, 3, "monthly", "SPY", 1_210_000.0,
				21.0, 42.5, 12.3, 1.1, 8.4, "2024-02-01", "2024-03-01",
				18.0, 0.9, 10.2, createdAt, allocJSON, snapCompressed,
			)
			dbPool.ExpectQuery("SELECT (.+) FROM backtest_runs WHERE id").
				WithArgs(runID).
				WillReturnRows(rows)

			run, err := backtest.GetRun(ctx, runID)
			Expect(err).To(BeNil())
			Expect(run.ID).To(Equal(runID))
			Expect(run.Rebalance).To(Equal(backtest.RebalanceMonthly))
			Expect(run.Metrics.FinalValue).To(BeNumerically("==", 1_210_000))
			Expect(run.Metrics.MaxDrawdownStart).To(Equal("2024-02-01"))
			Expect(run.Benchmark.SharpeRatio).To(BeNumerically("==", 0.9))
			Expect(run.EffectiveAllocations).To(MatchJSON(allocJSON))
			Expect(run.Snapshots).To(Equal(snapshots))
		})
	})

	Describe("when listing runs", func() {
		It("should return every stored summary", func() {
			otherID := uuid.New()
			createdAt := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
			rows := pgxmock.NewRows(storeColumns).
				AddRow(runID, "first", "2024-01-01", "2024-06-30", 1_000_000.0,
					3, "monthly", "SPY", 1_210_000.0, 21.0, 42.5, 12.3, 1.1,
					8.4, "2024-02-01", "2024-03-01", 18.0, 0.9, 10.2, createdAt).
				AddRow(otherID, "second", "2023-01-01", "2023-12-31", 500_000.0,
					2, "weekly", "QQQ", 550_000.0, 10.0, 10.0, 9.7, 0.6,
					14.2, "2023-03-01", "2023-05-01", 12.0, 0.7, 11.5, createdAt)
			dbPool.ExpectQuery("SELECT (.+) FROM backtest_runs ORDER BY created_at DESC").
				WillReturnRows(rows)

			runs, err := backtest.ListRuns(ctx)
			Expect(err).To(BeNil())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].ID).To(Equal(runID))
			Expect(runs[1].Name).To(Equal("second"))
			Expect(runs[1].Rebalance).To(Equal(backtest.RebalanceWeekly))
		})
	})

	Describe("when deleting runs", func() {
		It("should succeed when a row is removed", func() {
			dbPool.ExpectExec("DELETE FROM backtest_runs WHERE id").
				WithArgs(runID).
				WillReturnResult(pgxmock.NewResult("DELETE", 1))

			Expect(backtest.DeleteRun(ctx, runID)).To(Succeed())
		})

		It("should return ErrRunNotFound when nothing matched", func() {
			dbPool.ExpectExec("DELETE FROM backtest_runs WHERE id").
				WithArgs(runID).
				WillReturnResult(pgxmock.NewResult("DELETE", 0))

			Expect(backtest.DeleteRun(ctx, runID)).To(MatchError(backtest.ErrRunNotFound))
		})

		It("should report the purged row count", func() {
			cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			dbPool.ExpectExec("DELETE FROM backtest_runs WHERE created_at").
				WithArgs(cutoff).
				WillReturnResult(pgxmock.NewResult("DELETE", 3))

			count, err := backtest.PurgeRuns(ctx, cutoff)
			Expect(err).To(BeNil())
			Expect(count).To(BeNumerically("==", 3))
		})
	})
})
