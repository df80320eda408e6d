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

package optimize

import (
	"context"

	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/data"
)

// Execute loads market data for the request window and runs the allocation
// search. Optimization replays hundreds of simulations over one window, so
// the server always routes price loads through the local cache.
func Execute(ctx context.Context, req Request, useCache bool) (*Result, error) {
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
	regimes, err := data.LoadRegimeTimeline(ctx, data.ReferenceCountry)
	if err != nil {
		return nil, err
	}

	instruments := allocation.FilterAvailable(allocation.DefaultUniverse(), prices.HasTicker)
	return New(prices, regimes, instruments, req).Run(ctx)
}
