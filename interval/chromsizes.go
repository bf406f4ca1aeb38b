package interval

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// ChromSizes maps chromosome names to lengths.  It implements Extents.
type ChromSizes map[string]int

// Len implements Extents.
func (c ChromSizes) Len(chrom string) (int, bool) {
	n, ok := c[chrom]
	return n, ok
}

// chromSizeRow is the leading part of both .fai and chrom.sizes rows.  The rest
// of the fields are ignored.
type chromSizeRow struct {
	Name   string
	Length int
}

// ReadChromSizes reads a samtools .fai index or a UCSC chrom.sizes table.
func ReadChromSizes(r io.Reader) (ChromSizes, error) {
	sizes := ChromSizes{}
	reader := tsv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	for line := 1; ; line++ {
		var row chromSizeRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("interval.ReadChromSizes: line %d: %v", line, err)
		}
		if row.Length <= 0 {
			return nil, fmt.Errorf("interval.ReadChromSizes: line %d: invalid length %d for %s", line, row.Length, row.Name)
		}
		sizes[row.Name] = row.Length
	}
	return sizes, nil
}

// ReadChromSizesFromPath is a wrapper for ReadChromSizes that takes a path
// instead of an io.Reader.
func ReadChromSizesFromPath(ctx context.Context, path string) (sizes ChromSizes, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	return ReadChromSizes(infile.Reader(ctx))
}
