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
	"sort"
)

// PricePoint is a single adjusted close for a ticker on a trading day.
// Dates are ISO YYYY-MM-DD strings throughout; they order lexicographically.
type PricePoint struct {
	Ticker   string  `json:"ticker"`
	Date     string  `json:"date"`
	AdjClose float64 `json:"adjClose"`
}

// PriceSeries is an immutable per-ticker close-price lookup. It answers exact
// date queries in O(1) and falls back to the most recent prior price when a
// ticker did not trade on the requested day. It never extrapolates forward.
type PriceSeries struct {
	prices map[string]map[string]float64
	dates  map[string][]string
	axis   []string
}

// NewPriceSeries indexes a flat list of price rows. At most one row per
// (ticker, date) is expected; later duplicates overwrite earlier ones.
func NewPriceSeries(points []PricePoint) *PriceSeries {
	ps := &PriceSeries{
		prices: make(map[string]map[string]float64),
		dates:  make(map[string][]string),
	}

	axisSet := make(map[string]struct{})
	for _, p := range points {
		byDate, ok := ps.prices[p.Ticker]
		if !ok {
			byDate = make(map[string]float64)
			ps.prices[p.Ticker] = byDate
		}
		if _, exists := byDate[p.Date]; !exists {
			ps.dates[p.Ticker] = append(ps.dates[p.Ticker], p.Date)
		}
		byDate[p.Date] = p.AdjClose
		axisSet[p.Date] = struct{}{}
	}

	for ticker := range ps.dates {
		sort.Strings(ps.dates[ticker])
	}

	ps.axis = make([]string, 0, len(axisSet))
	for date := range axisSet {
		ps.axis = append(ps.axis, date)
	}
	sort.Strings(ps.axis)

	return ps
}

// PriceOn returns the price for ticker on date. If the ticker did not trade
// that day the most recent earlier price is returned. The second return value
// is false when no price on or before date exists.
func (ps *PriceSeries) PriceOn(ticker string, date string) (float64, bool) {
	byDate, ok := ps.prices[ticker]
	if !ok {
		return 0, false
	}
	if price, ok := byDate[date]; ok {
		return price, true
	}

	// most recent date strictly before the requested one
	dates := ps.dates[ticker]
	idx := sort.SearchStrings(dates, date)
	if idx == 0 {
		return 0, false
	}
	return byDate[dates[idx-1]], true
}

// PriceExact returns the price for ticker on date without fallback. The
// benchmark curve carries its last value flat on missing days instead of
// marking against a stale price.
func (ps *PriceSeries) PriceExact(ticker string, date string) (float64, bool) {
	price, ok := ps.prices[ticker][date]
	return price, ok
}

// HasTicker reports whether any price exists for ticker.
func (ps *PriceSeries) HasTicker(ticker string) bool {
	_, ok := ps.prices[ticker]
	return ok
}

// Dates returns the sorted union of all trading days across tickers. Callers
// must not modify the returned slice.
func (ps *PriceSeries) Dates() []string {
	return ps.axis
}

// NumDates returns the length of the combined date axis.
func (ps *PriceSeries) NumDates() int {
	return len(ps.axis)
}
