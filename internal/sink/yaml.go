// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/places-scan/pkg/types"
)

// Export is the document written by YAMLSink.
type Export struct {
	ScanID      string         `yaml:"scan_id"`
	GeneratedAt time.Time      `yaml:"generated_at"`
	Count       int            `yaml:"count"`
	Records     []types.Record `yaml:"records"`
}

// YAMLSink writes the Record set with run metadata as one YAML document.
type YAMLSink struct {
	Path   string
	ScanID string

	// Now stamps the export; nil means time.Now.
	Now func() time.Time
}

func (s YAMLSink) Name() string { return types.SinkYAML }

func (s YAMLSink) Destination() string { return s.Path }

func (s YAMLSink) Persist(_ context.Context, records []types.Record) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	doc := Export{
		ScanID:      s.ScanID,
		GeneratedAt: now().UTC(),
		Count:       len(records),
		Records:     records,
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeFileAtomic(s.Path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
