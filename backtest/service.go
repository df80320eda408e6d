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

	"github.com/rs/zerolog/log"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/data"
)

// Execute loads market data for the request window, runs the simulation and
// optionally persists the result. useCache routes price loads through the
// local LRU so repeated server requests over the same window skip the
// database.
func Execute(ctx context.Context, req Request, useCache bool, save bool) (*Result, error) {
	req.ApplyDefaults()

	var (
		points []data.PricePoint
		err    error
	)
	if useCache {
		points, err = data.LoadPricesCached(ctx, req.StartDate, req.EndDate)
	} else {
		points, err = data.LoadPrices(ctx, req.StartDate, req.EndDate)
	}
	if err != nil {
		return nil, err
	}

	prices := data.NewPriceSeries(points)
	if prices.NumDates() < 2 {
		return nil, ErrInsufficientData
	}

	regimes, err := data.LoadRegimeTimeline(ctx, data.ReferenceCountry)
	if err != nil {
		return nil, err
	}

	rows, err := data.LoadOverrides(ctx)
	if err != nil {
		return nil, err
	}
	saved := allocation.OverridesFromRows(rows)

	instruments := allocation.FilterAvailable(allocation.DefaultUniverse(), prices.HasTicker)
	if len(instruments) == 0 {
		return nil, ErrNoInstruments
	}

	policy := allocation.NewPolicy(instruments, req.RiskLevel, req.CustomAllocations, saved)
	result, err := NewSimulator(prices, regimes, policy, req).Run(ctx)
	if err != nil {
		return nil, err
	}

	if save {
		if err := SaveRun(ctx, result); err != nil {
			log.Error().Stack().Err(err).Str("RunID", result.ID.String()).Msg("could not save backtest run")
			return nil, err
		}
	}

	return result, nil
}
