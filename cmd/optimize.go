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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data/database"
	"github.com/regime-vault/rv-api/optimize"
)

var optimizeReq optimize.Request

var optimizeTimeout time.Duration

func init() {
	optimizeCmd.Flags().StringVar(&optimizeReq.StartDate, "start-date", "2020-01-01", "Evaluation start date (YYYY-MM-DD)")
	optimizeCmd.Flags().StringVar(&optimizeReq.EndDate, "end-date", "", "Evaluation end date (YYYY-MM-DD); defaults to today")
	optimizeCmd.Flags().Float64Var(&optimizeReq.InitialCapital, "initial-capital", 100_000_000, "Starting portfolio value")
	optimizeCmd.Flags().IntVar(&optimizeReq.RiskLevel, "risk-level", 3, "Risk level 1 (defensive) to 5 (aggressive)")
	optimizeCmd.Flags().StringVar((*string)(&optimizeReq.Rebalance), "rebalance", "monthly", "Rebalance period: daily, weekly, monthly, quarterly, or yearly")
	optimizeCmd.Flags().StringVar(&optimizeReq.BenchmarkTicker, "benchmark", "SPY", "Benchmark ticker")
	optimizeCmd.Flags().StringVar((*string)(&optimizeReq.Target), "target", "sharpe", "Objective to maximize: sharpe, return, or mdd")
	optimizeCmd.Flags().DurationVar(&optimizeTimeout, "timeout", 5*time.Minute, "Stop the search after this long and report the best policy found")

	rootCmd.AddCommand(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for per-regime allocations that maximize an objective",
	Run: func(_ *cobra.Command, _ []string) {
		common.SetupLogging()
		ctx, cancel := context.WithTimeout(context.Background(), optimizeTimeout)
		defer cancel()

		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		result, err := optimize.Execute(ctx, optimizeReq, false)
		if err != nil {
			log.Fatal().Err(err).Msg("optimization failed")
		}

		printOptimizeTable(result)
		printAllocationsTable(result.Allocations)
	},
}
