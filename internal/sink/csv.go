// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdiddy/places-scan/pkg/types"
)

// CSVSink writes a header row and one row per Record.
type CSVSink struct {
	Path string
}

func (s CSVSink) Name() string { return types.SinkCSV }

func (s CSVSink) Destination() string { return s.Path }

func (s CSVSink) Persist(_ context.Context, records []types.Record) error {
	return writeFileAtomic(s.Path, func(w io.Writer) error {
		return WriteCSV(w, records)
	})
}

// WriteCSV encodes records as CSV with a Columns header.
func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(cells(r)); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", r.PlaceID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
