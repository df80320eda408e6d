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

package allocation

// AssetClass is the closed set of investable buckets. Cash is held directly
// and never maps to an instrument.
type AssetClass string

const (
	ClassStocks      AssetClass = "stocks"
	ClassBonds       AssetClass = "bonds"
	ClassRealEstate  AssetClass = "realestate"
	ClassCommodities AssetClass = "commodities"
	ClassCrypto      AssetClass = "crypto"
	ClassCash        AssetClass = "cash"
)

// AssetClasses lists every class in canonical order. The optimizer iterates
// class pairs in this order; keep it stable.
var AssetClasses = []AssetClass{
	ClassStocks,
	ClassBonds,
	ClassRealEstate,
	ClassCommodities,
	ClassCrypto,
	ClassCash,
}

// IsValid reports whether c is a known asset class.
func (c AssetClass) IsValid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}
