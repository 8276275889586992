// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/places-scan/pkg/types"
)

// RDSConverter turns a CSV file into an R data file.
// *rscript.Converter implements it.
type RDSConverter interface {
	CSVToRDS(csvPath, rdsPath string) error
}

// RDSSink converts the CSV written by a CSVSink into RDS. It must run after
// the CSV sink in a Chain.
type RDSSink struct {
	CSVPath   string
	RDSPath   string
	Converter RDSConverter
}

func (s RDSSink) Name() string { return types.SinkRDS }

func (s RDSSink) Destination() string { return s.RDSPath }

func (s RDSSink) Persist(_ context.Context, _ []types.Record) error {
	if _, err := os.Stat(s.CSVPath); err != nil {
		return fmt.Errorf("CSV source missing: %w", err)
	}
	return s.Converter.CSVToRDS(s.CSVPath, s.RDSPath)
}
