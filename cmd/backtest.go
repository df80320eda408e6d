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

package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data/database"
)

var backtestReq backtest.Request

var (
	backtestSave bool
	backtestXlsx string
)

func init() {
	backtestCmd.Flags().StringVar(&backtestReq.Name, "name", "", "Name to store the run under")
	backtestCmd.Flags().StringVar(&backtestReq.StartDate, "start-date", "2020-01-01", "Simulation start date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&backtestReq.EndDate, "end-date", "", "Simulation end date (YYYY-MM-DD); defaults to today")
	backtestCmd.Flags().Float64Var(&backtestReq.InitialCapital, "initial-capital", 100_000_000, "Starting portfolio value")
	backtestCmd.Flags().IntVar(&backtestReq.RiskLevel, "risk-level", 3, "Risk level 1 (defensive) to 5 (aggressive)")
	backtestCmd.Flags().StringVar((*string)(&backtestReq.Rebalance), "rebalance", "monthly", "Rebalance period: daily, weekly, monthly, quarterly, or yearly")
	backtestCmd.Flags().StringVar(&backtestReq.BenchmarkTicker, "benchmark", "SPY", "Benchmark ticker")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "Persist the run to the database")
	backtestCmd.Flags().StringVar(&backtestXlsx, "xlsx", "", "Write an equity-curve workbook to the given path")

	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Simulate the regime allocation policy over a date range",
	Run: func(_ *cobra.Command, _ []string) {
		common.SetupLogging()
		ctx := context.Background()

		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		result, err := backtest.Execute(ctx, backtestReq, false, backtestSave)
		if err != nil {
			log.Fatal().Err(err).Msg("backtest failed")
		}

		printMetricsTable(result)
		printAllocationsTable(result.EffectiveAllocations)

		if backtestXlsx != "" {
			if err := writeResultXlsx(result, backtestXlsx); err != nil {
				log.Fatal().Err(err).Str("FileName", backtestXlsx).Msg("could not write workbook")
			}
			log.Info().Str("FileName", backtestXlsx).Msg("wrote workbook")
		}
	},
}
