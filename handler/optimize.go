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
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/regime-vault/rv-api/backtest"
	"github.com/regime-vault/rv-api/observability/opentelemetry"
	"github.com/regime-vault/rv-api/optimize"
)

// defaultOptimizeTimeout bounds server-side searches; the optimizer returns
// its best-so-far policy when the deadline fires.
const defaultOptimizeTimeout = 5 * time.Minute

// RunOptimization searches for per-regime allocations maximizing the
// requested objective.
func RunOptimization(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.RunOptimization")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	var req optimize.Request
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Msg("could not parse optimize request body")
		return fiber.ErrBadRequest
	}

	if err := validateWindow(req.StartDate, req.EndDate); err != nil {
		log.Warn().Err(err).Str("StartDate", req.StartDate).Str("EndDate", req.EndDate).Msg("invalid optimize window")
		return fiber.ErrBadRequest
	}
	if req.RiskLevel < 0 || req.RiskLevel > 5 {
		log.Warn().Int("RiskLevel", req.RiskLevel).Msg("invalid risk level")
		return fiber.ErrBadRequest
	}
	if req.Target != "" && !req.Target.IsValid() {
		log.Warn().Str("Target", string(req.Target)).Msg("invalid optimize target")
		return fiber.ErrBadRequest
	}

	timeout := viper.GetDuration("optimize.timeout")
	if timeout == 0 {
		timeout = defaultOptimizeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := optimize.Execute(ctx, req, true)
	if err != nil {
		if errors.Is(err, optimize.ErrInsufficientData) || errors.Is(err, backtest.ErrNoInstruments) {
			log.Warn().Err(err).Str("StartDate", req.StartDate).Str("EndDate", req.EndDate).Msg("optimization rejected")
			return fiber.ErrBadRequest
		}
		log.Error().Stack().Err(err).Msg("optimization failed")
		return fiber.ErrInternalServerError
	}

	return c.JSON(result)
}
