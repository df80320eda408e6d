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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data/database"
)

func init() {
	if err := viper.BindEnv("database.max_run_age_secs", "MAX_RUN_AGE_SECS"); err != nil {
		log.Panic().Err(err).Msg("could not bind database.max_run_age_secs")
	}
	purgeCmd.Flags().IntP("max_run_age_secs", "s", 2592000, "Maximum stored run age in seconds")
	if err := viper.BindPFlag("database.max_run_age_secs", purgeCmd.Flags().Lookup("max_run_age_secs")); err != nil {
		log.Panic().Err(err).Msg("could not bind database.max_run_age_secs")
	}

	rootCmd.AddCommand(purgeCmd)
}

var purgeCmd = &cobra.Command{
	Use:   "purge [run-id ...]",
	Short: "Delete stored backtest runs by id, or runs older than max_run_age_secs",
	Run: func(_ *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		if err := database.Connect(ctx); err != nil {
			log.Panic().Err(err).Msg("could not connect to database")
		}

		if len(args) > 0 {
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					log.Error().Err(err).Str("RunID", arg).Msg("invalid run id")
					continue
				}
				if err := backtest.DeleteRun(ctx, id); err != nil {
					log.Error().Stack().Err(err).Str("RunID", arg).Msg("could not delete run")
					continue
				}
				log.Info().Str("RunID", arg).Msg("deleted run")
			}
			return
		}

		maxAgeDuration := viper.GetDuration("database.max_run_age_secs") * -1 * time.Second
		cutoff := time.Now().Add(maxAgeDuration)

		cnt, err := backtest.PurgeRuns(ctx, cutoff)
		if err != nil {
			log.Panic().Err(err).Msg("could not purge runs")
		}
		log.Info().Int64("NumDeleted", cnt).Time("Cutoff", cutoff).Msg("purged expired runs")
	},
}
