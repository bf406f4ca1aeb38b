// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package annotation

import (
	"context"

	"github.com/grailbio/methplot/interval"
	"github.com/pkg/errors"
)

// BED provides the merged regions of a BED file as highlight records.
type BED struct {
	union interval.BEDUnion
}

// ReadBED loads a (possibly gzipped) BED file.
func ReadBED(ctx context.Context, path string) (*BED, error) {
	u, err := interval.NewBEDUnionFromPath(ctx, path, interval.NewBEDOpts{})
	if err != nil {
		return nil, errors.Wrapf(err, "annotation.ReadBED %s", path)
	}
	return &BED{union: u}, nil
}

// Tracks implements Provider.  Merged regions never overlap, so they all sit
// at depth 0.  simplify has no effect.
func (b *BED) Tracks(ctx context.Context, w interval.Window, simplify bool) ([]Feature, int, error) {
	entries := b.union.Overlap(w)
	features := make([]Feature, len(entries))
	for i, e := range entries {
		features[i] = Feature{
			Kind:  Region,
			Start: int(e.Start0),
			// Entries are half-open.
			End: int(e.End) - 1,
		}
	}
	return features, 0, nil
}
