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
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/regime-vault/rv-api/common"
)

var (
	Profile bool
	Trace   bool
)

func init() {
	// Database
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Panic().Err(err).Msg("could not bind database.url")
	}
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	if err := viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url")); err != nil {
		log.Panic().Err(err).Msg("could not bind database.url")
	}

	// Logging configuration
	if err := viper.BindEnv("log.level", "RV_LOG_LEVEL"); err != nil {
		log.Panic().Err(err).Msg("could not bind log.level")
	}
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.level")
	}

	if err := viper.BindEnv("log.report_caller", "RV_LOG_REPORT_CALLER"); err != nil {
		log.Panic().Err(err).Msg("could not bind log.report_caller")
	}
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	if err := viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.report_caller")
	}

	if err := viper.BindEnv("log.output", "RV_LOG_OUTPUT"); err != nil {
		log.Panic().Err(err).Msg("could not bind log.output")
	}
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	if err := viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.output")
	}

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs on the console")
	if err := viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.pretty")
	}

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     "rvapi",
	Version: common.CurrentVersion.String(),
	Short:   "Regime Vault backtests macro-regime allocation policies",
	Long:    `Backtest and optimize regime-driven portfolio allocations against historical ETF prices.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
