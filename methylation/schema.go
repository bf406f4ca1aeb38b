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
	"strings"

	"github.com/antzucaro/matchr"
)

// Column names of the two recognized table layouts.  There is no declared
// schema version; the presence of ColLogLikRatio alone selects Raw.
const (
	ColChromosome  = "chromosome"
	ColStart       = "start"
	ColEnd         = "end"
	ColLogLikRatio = "log_lik_ratio"
	ColReadName    = "read_name"
	ColStrand      = "strand"
	ColFrequency   = "methylated_frequency"
)

var (
	commonCols    = []string{ColChromosome, ColStart, ColEnd}
	rawCols       = []string{ColReadName, ColLogLikRatio, ColStrand}
	frequencyCols = []string{ColFrequency}
)

// maxSuggestDistance bounds the edit distance of "did you mean" hints.
const maxSuggestDistance = 3

// Classify decides the Dataset variant from a header row, and checks that every
// column the variant needs is present.  Column order is irrelevant.
func Classify(header []string) (Kind, error) {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	kind := Frequency
	required := frequencyCols
	if present[ColLogLikRatio] {
		kind = Raw
		required = rawCols
	}
	var missing []string
	for _, cols := range [][]string{commonCols, required} {
		for _, col := range cols {
			if !present[col] {
				missing = append(missing, describeMissing(col, header))
			}
		}
	}
	if len(missing) > 0 {
		return kind, fmt.Errorf("%s table is missing column(s) %s", kind, strings.Join(missing, ", "))
	}
	return kind, nil
}

// describeMissing names a missing column and, when one is close enough, the
// header column that was probably meant.
func describeMissing(col string, header []string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, h := range header {
		if d := matchr.Levenshtein(col, h); d < bestDist {
			best, bestDist = h, d
		}
	}
	if best == "" {
		return fmt.Sprintf("%q", col)
	}
	return fmt.Sprintf("%q (found %q)", col, best)
}
