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
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data/database"
	"github.com/regime-vault/rv-api/middleware"
	"github.com/regime-vault/rv-api/observability/opentelemetry"
	"github.com/regime-vault/rv-api/router"
)

func init() {
	if err := viper.BindEnv("server.port", "PORT"); err != nil {
		log.Panic().Err(err).Msg("could not bind server.port")
	}
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	if err := viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		log.Panic().Err(err).Msg("could not bind server.port")
	}

	if err := viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT"); err != nil {
		log.Panic().Err(err).Msg("could not bind otlp.endpoint")
	}
	serveCmd.Flags().String("otlp-endpoint", "", "OTLP trace collector endpoint; if blank tracing is disabled")
	if err := viper.BindPFlag("otlp.endpoint", serveCmd.Flags().Lookup("otlp-endpoint")); err != nil {
		log.Panic().Err(err).Msg("could not bind otlp.endpoint")
	}

	serveCmd.Flags().Int("cache-size", 64, "Number of price windows kept in the local cache")
	if err := viper.BindPFlag("cache.local_size", serveCmd.Flags().Lookup("cache-size")); err != nil {
		log.Panic().Err(err).Msg("could not bind cache.local_size")
	}

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rv-api server",
	Long:  `Run HTTP server that implements the Regime Vault API`,
	Run: func(_ *cobra.Command, _ []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile.out")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		ctx := context.Background()

		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		if viper.GetString("otlp.endpoint") != "" {
			shutdown, err := opentelemetry.Setup()
			if err != nil {
				log.Fatal().Err(err).Msg("could not configure tracing")
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down trace provider")
				}
			}()
		}

		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c
			log.Info().Str("Signal", sig.String()).Msg("received signal, shutting down")
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("error shutting down server")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: "http://localhost:8080, https://www.regime-vault.com",
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,DELETE",
		}))

		app.Use(middleware.NewLogger())

		router.SetupRoutes(app)

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	},
}
