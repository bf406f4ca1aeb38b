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

	"github.com/grailbio/methplot/interval"
)

// ParseError reports that a methylation table could not be turned into a
// Dataset: the file is unreadable, or it lacks the columns of both schemas.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("methylation: error parsing %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

// EmptyResultError reports that no input had a single row inside the window.
type EmptyResultError struct {
	Window interval.Window
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("methylation: no rows within %s in any input", e.Window.Label)
}

// CheckNonEmpty returns an *EmptyResultError if the datasets hold no rows at
// all.
func CheckNonEmpty(datasets []Dataset, w interval.Window) error {
	if TotalLen(datasets) == 0 {
		return &EmptyResultError{Window: w}
	}
	return nil
}
