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
	"github.com/regime-vault/rv-api/allocation"
	"github.com/regime-vault/rv-api/data"
)

// aggressivePresets are hand-authored extreme vectors probed after the first
// hill-climbing phase. Each leans hard into the economically sensible trade
// for its regime: commodities in inflationary regimes, long bonds in
// deflation, equities in goldilocks. Vectors are renormalized before use.
var aggressivePresets = map[data.RegimeLabel][]allocation.ClassWeights{
	data.RegimeGoldilocks: {
		{allocation.ClassStocks: 60, allocation.ClassBonds: 10, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 5, allocation.ClassCrypto: 10, allocation.ClassCash: 5},
		{allocation.ClassStocks: 55, allocation.ClassBonds: 15, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 5, allocation.ClassCrypto: 10, allocation.ClassCash: 5},
		{allocation.ClassStocks: 50, allocation.ClassBonds: 15, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 10, allocation.ClassCrypto: 10, allocation.ClassCash: 5},
	},
	data.RegimeInflationBoom: {
		{allocation.ClassStocks: 20, allocation.ClassBonds: 5, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 40, allocation.ClassCrypto: 15, allocation.ClassCash: 10},
		{allocation.ClassStocks: 25, allocation.ClassBonds: 5, allocation.ClassRealEstate: 5, allocation.ClassCommodities: 35, allocation.ClassCrypto: 15, allocation.ClassCash: 15},
		{allocation.ClassStocks: 15, allocation.ClassBonds: 5, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 45, allocation.ClassCrypto: 10, allocation.ClassCash: 15},
	},
	data.RegimeOverheating: {
		{allocation.ClassStocks: 10, allocation.ClassBonds: 10, allocation.ClassRealEstate: 5, allocation.ClassCommodities: 40, allocation.ClassCrypto: 5, allocation.ClassCash: 30},
		{allocation.ClassStocks: 15, allocation.ClassBonds: 5, allocation.ClassRealEstate: 5, allocation.ClassCommodities: 45, allocation.ClassCrypto: 5, allocation.ClassCash: 25},
		{allocation.ClassStocks: 10, allocation.ClassBonds: 15, allocation.ClassRealEstate: 3, allocation.ClassCommodities: 35, allocation.ClassCrypto: 7, allocation.ClassCash: 30},
	},
	data.RegimeStagflationLite: {
		{allocation.ClassStocks: 5, allocation.ClassBonds: 5, allocation.ClassRealEstate: 3, allocation.ClassCommodities: 55, allocation.ClassCrypto: 7, allocation.ClassCash: 25},
		{allocation.ClassStocks: 10, allocation.ClassBonds: 10, allocation.ClassRealEstate: 5, allocation.ClassCommodities: 45, allocation.ClassCrypto: 10, allocation.ClassCash: 20},
		{allocation.ClassStocks: 5, allocation.ClassBonds: 10, allocation.ClassRealEstate: 3, allocation.ClassCommodities: 50, allocation.ClassCrypto: 5, allocation.ClassCash: 27},
	},
	data.RegimeStagflation: {
		{allocation.ClassStocks: 5, allocation.ClassBonds: 5, allocation.ClassRealEstate: 2, allocation.ClassCommodities: 55, allocation.ClassCrypto: 3, allocation.ClassCash: 30},
		{allocation.ClassStocks: 5, allocation.ClassBonds: 10, allocation.ClassRealEstate: 2, allocation.ClassCommodities: 50, allocation.ClassCrypto: 5, allocation.ClassCash: 28},
		{allocation.ClassStocks: 3, allocation.ClassBonds: 5, allocation.ClassRealEstate: 2, allocation.ClassCommodities: 60, allocation.ClassCrypto: 5, allocation.ClassCash: 25},
	},
	data.RegimeReflation: {
		{allocation.ClassStocks: 30, allocation.ClassBonds: 30, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 10, allocation.ClassCrypto: 10, allocation.ClassCash: 10},
		{allocation.ClassStocks: 25, allocation.ClassBonds: 35, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 10, allocation.ClassCrypto: 10, allocation.ClassCash: 10},
		{allocation.ClassStocks: 20, allocation.ClassBonds: 40, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 10, allocation.ClassCrypto: 10, allocation.ClassCash: 10},
	},
	data.RegimeDeflationCrisis: {
		{allocation.ClassStocks: 5, allocation.ClassBonds: 45, allocation.ClassRealEstate: 2, allocation.ClassCommodities: 15, allocation.ClassCrypto: 3, allocation.ClassCash: 30},
		{allocation.ClassStocks: 5, allocation.ClassBonds: 50, allocation.ClassRealEstate: 2, allocation.ClassCommodities: 10, allocation.ClassCrypto: 3, allocation.ClassCash: 30},
		{allocation.ClassStocks: 10, allocation.ClassBonds: 40, allocation.ClassRealEstate: 5, allocation.ClassCommodities: 15, allocation.ClassCrypto: 5, allocation.ClassCash: 25},
	},
	data.RegimeDisinflationTightening: {
		{allocation.ClassStocks: 40, allocation.ClassBonds: 25, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 5, allocation.ClassCrypto: 10, allocation.ClassCash: 10},
		{allocation.ClassStocks: 35, allocation.ClassBonds: 30, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 5, allocation.ClassCrypto: 10, allocation.ClassCash: 10},
		{allocation.ClassStocks: 45, allocation.ClassBonds: 20, allocation.ClassRealEstate: 10, allocation.ClassCommodities: 5, allocation.ClassCrypto: 10, allocation.ClassCash: 10},
	},
}
