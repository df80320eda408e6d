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

// RegimeLabel identifies one of the 8 macro regimes formed by the
// growth (high/low) x inflation (high/low) x liquidity (expanding/contracting)
// axes.
type RegimeLabel string

const (
	RegimeGoldilocks             RegimeLabel = "goldilocks"
	RegimeDisinflationTightening RegimeLabel = "disinflation_tightening"
	RegimeInflationBoom          RegimeLabel = "inflation_boom"
	RegimeOverheating            RegimeLabel = "overheating"
	RegimeStagflationLite        RegimeLabel = "stagflation_lite"
	RegimeStagflation            RegimeLabel = "stagflation"
	RegimeReflation              RegimeLabel = "reflation"
	RegimeDeflationCrisis        RegimeLabel = "deflation_crisis"
)

// DefaultRegime is assumed for any date not covered by the timeline.
const DefaultRegime = RegimeGoldilocks

// RegimeLabels lists all regimes in canonical order.
var RegimeLabels = []RegimeLabel{
	RegimeGoldilocks,
	RegimeDisinflationTightening,
	RegimeInflationBoom,
	RegimeOverheating,
	RegimeStagflationLite,
	RegimeStagflation,
	RegimeReflation,
	RegimeDeflationCrisis,
}

// IsValid reports whether l is one of the 8 known regimes.
func (l RegimeLabel) IsValid() bool {
	for _, known := range RegimeLabels {
		if l == known {
			return true
		}
	}
	return false
}

// RegimeRecord marks the regime in force starting on Date.
type RegimeRecord struct {
	Date  string      `json:"date"`
	Label RegimeLabel `json:"regime"`
}

// RegimeTimeline is an ordered series of regime changes for the reference
// country. The portfolio uses a single timeline; US regimes dominate the
// global allocation.
type RegimeTimeline struct {
	records []RegimeRecord
}

// NewRegimeTimeline sorts records ascending by date and deduplicates repeated
// dates, keeping the last record seen for each date.
func NewRegimeTimeline(records []RegimeRecord) *RegimeTimeline {
	byDate := make(map[string]RegimeRecord, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	deduped := make([]RegimeRecord, 0, len(byDate))
	for _, r := range byDate {
		deduped = append(deduped, r)
	}
	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].Date < deduped[j].Date
	})

	return &RegimeTimeline{records: deduped}
}

// LabelOnOrBefore returns the regime of the latest record dated on or before
// date, or DefaultRegime when the timeline is empty or starts later.
func (rt *RegimeTimeline) LabelOnOrBefore(date string) RegimeLabel {
	idx := sort.Search(len(rt.records), func(i int) bool {
		return rt.records[i].Date > date
	})
	if idx == 0 {
		return DefaultRegime
	}
	return rt.records[idx-1].Label
}

// Len returns the number of regime change records.
func (rt *RegimeTimeline) Len() int {
	return len(rt.records)
}
