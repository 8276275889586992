// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink persists the final Record set of a scan. Every sink receives
// the same name-ordered slice and writes all of it or returns an error.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/places-scan/pkg/types"
)

// Sink writes a complete Record set to one destination.
type Sink interface {
	Name() string
	Persist(ctx context.Context, records []types.Record) error
}

// Columns is the tabular projection of a Record shared by the CSV and
// table sinks.
var Columns = []string{
	"place_id", "name", "address", "lat", "lng", "types",
	"rating", "user_ratings_total", "business_status", "price_level",
	"formatted_address", "phone", "website", "hours", "is_open_now", "description",
}

// typesSeparator joins a Record's category tags into one cell.
const typesSeparator = ", "

// values returns the column values of r in Columns order. Absent optional
// fields are nil.
func values(r types.Record) []any {
	return []any{
		r.PlaceID,
		r.Name,
		r.Address,
		r.Lat,
		r.Lng,
		strings.Join(r.Types, typesSeparator),
		deref(r.Rating),
		deref(r.UserRatingsTotal),
		nullIfEmpty(string(r.BusinessStatus)),
		deref(r.PriceLevel),
		deref(r.FormattedAddress),
		deref(r.Phone),
		deref(r.Website),
		deref(r.Hours),
		deref(r.OpenNow),
		deref(r.Description),
	}
}

// cells renders the column values of r as strings. Absent fields are empty.
func cells(r types.Record) []string {
	vals := values(r)
	out := make([]string, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case nil:
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			out[i] = strconv.Itoa(v)
		case bool:
			out[i] = strconv.FormatBool(v)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// writeFileAtomic writes path through a temporary file in the same
// directory, creating the directory if needed.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// Warning is a non-fatal failure of a secondary sink.
type Warning struct {
	Sink string
	Err  error
}

func (w Warning) Error() string { return w.Sink + ": " + w.Err.Error() }

func (w Warning) Unwrap() error { return w.Err }

// Chain persists to a primary sink and then to any number of secondary
// sinks. Only a primary failure is fatal; secondary failures are collected
// as Warnings and the remaining sinks still run.
type Chain struct {
	Primary   Sink
	Secondary []Sink
}

// Persist writes records to every sink in order and reports which ones
// succeeded. The returned error is the primary's failure, if any.
func (c Chain) Persist(ctx context.Context, records []types.Record, w io.Writer) (written []string, warnings []Warning, err error) {
	if err := c.Primary.Persist(ctx, records); err != nil {
		return nil, nil, fmt.Errorf("%s sink: %w", c.Primary.Name(), err)
	}
	written = append(written, c.Primary.Name())
	fmt.Fprintf(w, "saved %d records to %s\n", len(records), describe(c.Primary))

	for _, s := range c.Secondary {
		if err := s.Persist(ctx, records); err != nil {
			warn := Warning{Sink: s.Name(), Err: err}
			warnings = append(warnings, warn)
			fmt.Fprintf(w, "warning: %v\n", warn)
			continue
		}
		written = append(written, s.Name())
		fmt.Fprintf(w, "saved %d records to %s\n", len(records), describe(s))
	}
	return written, warnings, nil
}

// describer is implemented by sinks that can name their destination.
type describer interface {
	Destination() string
}

func describe(s Sink) string {
	if d, ok := s.(describer); ok {
		return d.Destination()
	}
	return s.Name()
}

// JoinWarnings folds warnings into a single error, or nil.
func JoinWarnings(ws []Warning) error {
	errs := make([]error, len(ws))
	for i, w := range ws {
		errs[i] = w
	}
	return errors.Join(errs...)
}
