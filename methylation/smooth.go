// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package methylation

import (
	"fmt"
	"sort"
)

// DefaultSmooth is the default smoothing span.
const DefaultSmooth = 5

// ValidateSpan checks that span is a positive odd integer.
func ValidateSpan(span int) error {
	if span <= 0 || span%2 == 0 {
		return fmt.Errorf("methylation: smoothing span must be a positive odd integer, got %d", span)
	}
	return nil
}

// collapseSites averages the values of sites sharing a position and returns
// the result ascending by position.  sites is sorted in place.
func collapseSites(sites []Site) []Site {
	sort.SliceStable(sites, func(i, j int) bool { return sites[i].Pos < sites[j].Pos })
	out := sites[:0]
	for i := 0; i < len(sites); {
		j := i
		sum := 0.0
		for ; j < len(sites) && sites[j].Pos == sites[i].Pos; j++ {
			sum += sites[j].Value
		}
		out = append(out, Site{Pos: sites[i].Pos, Value: sum / float64(j-i)})
		i = j
	}
	return out
}

// Smooth applies a centered moving average of the given span to sites, which
// must be ascending and unique by position.  The (span-1)/2 sites at each end
// have no full window and are dropped, so len(result) is
// max(0, len(sites)-(span-1)).  span must pass ValidateSpan.
func Smooth(sites []Site, span int) []Site {
	half := (span - 1) / 2
	n := len(sites) - 2*half
	if n <= 0 {
		return []Site{}
	}
	result := make([]Site, n)
	for i := half; i < len(sites)-half; i++ {
		sum := 0.0
		for j := i - half; j <= i+half; j++ {
			sum += sites[j].Value
		}
		result[i-half] = Site{Pos: sites[i].Pos, Value: sum / float64(span)}
	}
	return result
}
