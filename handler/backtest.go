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

package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/observability/opentelemetry"
)

// validateWindow rejects malformed or inverted date ranges; blank dates are
// filled with defaults downstream.
func validateWindow(startDate string, endDate string) error {
	if startDate != "" {
		if _, err := time.Parse(common.DateFormat, startDate); err != nil {
			return err
		}
	}
	if endDate != "" {
		if _, err := time.Parse(common.DateFormat, endDate); err != nil {
			return err
		}
	}
	if startDate != "" && endDate != "" && startDate > endDate {
		return errors.New("startDate is after endDate")
	}
	return nil
}

// RunBacktest simulates the requested policy and persists the run.
func RunBacktest(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.RunBacktest")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	var req backtest.Request
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Msg("could not parse backtest request body")
		return fiber.ErrBadRequest
	}

	if err := validateWindow(req.StartDate, req.EndDate); err != nil {
		log.Warn().Err(err).Str("StartDate", req.StartDate).Str("EndDate", req.EndDate).Msg("invalid backtest window")
		return fiber.ErrBadRequest
	}
	if req.RiskLevel < 0 || req.RiskLevel > 5 {
		log.Warn().Int("RiskLevel", req.RiskLevel).Msg("invalid risk level")
		return fiber.ErrBadRequest
	}
	if req.Rebalance != "" && !req.Rebalance.IsValid() {
		log.Warn().Str("Rebalance", string(req.Rebalance)).Msg("invalid rebalance period")
		return fiber.ErrBadRequest
	}

	result, err := backtest.Execute(ctx, req, true, true)
	if err != nil {
		if errors.Is(err, backtest.ErrInsufficientData) || errors.Is(err, backtest.ErrNoInstruments) {
			log.Warn().Err(err).Str("StartDate", req.StartDate).Str("EndDate", req.EndDate).Msg("backtest rejected")
			return fiber.ErrBadRequest
		}
		log.Error().Stack().Err(err).Msg("backtest failed")
		return fiber.ErrInternalServerError
	}

	return c.JSON(result)
}

// ListBacktests returns summaries of stored runs, newest first.
func ListBacktests(c *fiber.Ctx) error {
	runs, err := backtest.ListRuns(c.Context())
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not list backtest runs")
		return fiber.ErrInternalServerError
	}
	return c.JSON(runs)
}

// GetBacktest returns one stored run with its snapshot curve.
func GetBacktest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		log.Warn().Err(err).Str("RunID", c.Params("id")).Msg("invalid run id")
		return fiber.ErrBadRequest
	}

	run, err := backtest.GetRun(c.Context(), id)
	if err != nil {
		if errors.Is(err, backtest.ErrRunNotFound) {
			return fiber.ErrNotFound
		}
		log.Error().Stack().Err(err).Str("RunID", id.String()).Msg("could not load backtest run")
		return fiber.ErrInternalServerError
	}

	return c.JSON(run)
}

// DeleteBacktest removes one stored run.
func DeleteBacktest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		log.Warn().Err(err).Str("RunID", c.Params("id")).Msg("invalid run id")
		return fiber.ErrBadRequest
	}

	if err := backtest.DeleteRun(c.Context(), id); err != nil {
		if errors.Is(err, backtest.ErrRunNotFound) {
			return fiber.ErrNotFound
		}
		log.Error().Stack().Err(err).Str("RunID", id.String()).Msg("could not delete backtest run")
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"status": "success", "id": id.String()})
}
