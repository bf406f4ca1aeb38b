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
	"context"
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/methplot/interval"
)

// GetData loads paths[i] under names[i] for every i, in order, and returns the
// datasets in the same order.  Loading stops at the first failure, whose
// *ParseError is returned unchanged; files after it are never opened.
func GetData(ctx context.Context, paths, names []string, w interval.Window, span int) ([]Dataset, error) {
	if len(paths) != len(names) {
		return nil, fmt.Errorf("methylation.GetData: %d files but %d names", len(paths), len(names))
	}
	if err := ValidateSpan(span); err != nil {
		return nil, err
	}
	datasets := make([]Dataset, 0, len(paths))
	for i, path := range paths {
		d, err := ReadMeth(ctx, path, names[i], w, span)
		if err != nil {
			return nil, err
		}
		log.Debug.Printf("%s: loaded %s as %s, %d rows in %s", names[i], path, d.Kind(), d.Len(), w.Label)
		datasets = append(datasets, d)
	}
	return datasets, nil
}
