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

package data

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/regime-vault/rv-api/common"
	"github.com/regime-vault/rv-api/data/database"
)

// ReferenceCountry is the regime series applied to the whole portfolio.
const ReferenceCountry = "US"

// OverrideRow is one persisted user allocation override. AssetClass stays a
// plain string here; the allocation package validates it against its enum and
// silently drops unknown keys.
type OverrideRow struct {
	Regime     RegimeLabel `json:"regime"`
	AssetClass string      `json:"assetClass"`
	WeightPct  float64     `json:"weightPct"`
}

// LoadPrices reads adjusted closes for all tickers in [startDate, endDate].
func LoadPrices(ctx context.Context, startDate string, endDate string) ([]PricePoint, error) {
	sql := `SELECT ticker, date, adj_close FROM historical_prices WHERE date >= $1 AND date <= $2 ORDER BY date`
	rows, err := database.Pool().Query(ctx, sql, startDate, endDate)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("price query failed")
		return nil, err
	}
	defer rows.Close()

	points := make([]PricePoint, 0, 4096)
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Ticker, &p.Date, &p.AdjClose); err != nil {
			log.Error().Stack().Err(err).Msg("price row scan failed")
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("price query read failed")
		return nil, err
	}

	return points, nil
}

// LoadPricesCached is LoadPrices memoized in the process-local LRU; used by
// the server path where the optimizer may be invoked repeatedly over the same
// window.
func LoadPricesCached(ctx context.Context, startDate string, endDate string) ([]PricePoint, error) {
	key := common.CacheKey("prices", startDate, endDate)
	if raw, ok := common.CacheGet(key); ok {
		var points []PricePoint
		if err := json.Unmarshal(raw, &points); err == nil {
			return points, nil
		}
		log.Warn().Str("Key", key).Msg("discarding unreadable cached price entry")
	}

	points, err := LoadPrices(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(points); err == nil {
		if err := common.CacheSet(key, raw); err != nil {
			log.Warn().Err(err).Msg("could not cache price rows")
		}
	}

	return points, nil
}

// LoadRegimeTimeline reads the regime change series for one country.
func LoadRegimeTimeline(ctx context.Context, country string) (*RegimeTimeline, error) {
	sql := `SELECT date, regime_name FROM regimes WHERE country = $1 ORDER BY date`
	rows, err := database.Pool().Query(ctx, sql, country)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("regime query failed")
		return nil, err
	}
	defer rows.Close()

	records := make([]RegimeRecord, 0, 64)
	for rows.Next() {
		var r RegimeRecord
		var label string
		if err := rows.Scan(&r.Date, &label); err != nil {
			log.Error().Stack().Err(err).Msg("regime row scan failed")
			return nil, err
		}
		r.Label = RegimeLabel(label)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("regime query read failed")
		return nil, err
	}

	return NewRegimeTimeline(records), nil
}

// LoadOverrides reads all persisted user allocation overrides.
func LoadOverrides(ctx context.Context) ([]OverrideRow, error) {
	sql := `SELECT regime_name, asset_class, weight_pct FROM user_regime_overrides`
	rows, err := database.Pool().Query(ctx, sql)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("override query failed")
		return nil, err
	}
	defer rows.Close()

	overrides := make([]OverrideRow, 0, 16)
	for rows.Next() {
		var o OverrideRow
		var label string
		if err := rows.Scan(&label, &o.AssetClass, &o.WeightPct); err != nil {
			log.Error().Stack().Err(err).Msg("override row scan failed")
			return nil, err
		}
		o.Regime = RegimeLabel(label)
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("override query read failed")
		return nil, err
	}

	return overrides, nil
}
