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

// Package pgxmockhelper builds pgxmock row expectations for the rv-api
// schemas so test suites don't repeat column lists.
package pgxmockhelper

import (
	"github.com/pashagolub/pgxmock"

	"github.com/regime-vault/rv-api/data"
)

// MockPrices registers a historical_prices query expectation returning the
// given points.
func MockPrices(mock pgxmock.PgxConnIface, points []data.PricePoint) {
	rows := pgxmock.NewRows([]string{"ticker", "date", "adj_close"})
	for _, p := range points {
		rows.AddRow(p.Ticker, p.Date, p.AdjClose)
	}
	mock.ExpectQuery("SELECT ticker, date, adj_close FROM historical_prices").
		WillReturnRows(rows)
}

// MockRegimes registers a regimes query expectation returning the given
// records.
func MockRegimes(mock pgxmock.PgxConnIface, records []data.RegimeRecord) {
	rows := pgxmock.NewRows([]string{"date", "regime_name"})
	for _, r := range records {
		rows.AddRow(r.Date, string(r.Label))
	}
	mock.ExpectQuery("SELECT date, regime_name FROM regimes").
		WillReturnRows(rows)
}

// MockOverrides registers a user_regime_overrides query expectation returning
// the given rows.
func MockOverrides(mock pgxmock.PgxConnIface, overrides []data.OverrideRow) {
	rows := pgxmock.NewRows([]string{"regime_name", "asset_class", "weight_pct"})
	for _, o := range overrides {
		rows.AddRow(string(o.Regime), o.AssetClass, o.WeightPct)
	}
	mock.ExpectQuery("SELECT regime_name, asset_class, weight_pct FROM user_regime_overrides").
		WillReturnRows(rows)
}
