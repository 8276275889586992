// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich merges place-details lookups into stored Records.
package enrich

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/places-scan/internal/httputil"
	"github.com/pdiddy/places-scan/internal/store"
	"github.com/pdiddy/places-scan/pkg/types"
)

// hoursSeparator joins the weekday lines of an opening-hours block.
const hoursSeparator = "; "

// DetailsFetcher looks up the extended fields of one place.
// *places.Client implements it.
type DetailsFetcher interface {
	Details(ctx context.Context, placeID string) (*types.PlaceDetails, error)
}

// Result holds the outcome of an enrichment pass.
type Result struct {
	Enriched int
	Failed   int
}

// Total returns the number of records processed.
func (r Result) Total() int { return r.Enriched + r.Failed }

// Enricher issues one details lookup per stored Record.
type Enricher struct {
	fetch DetailsFetcher
	batch int
	pause time.Duration
	sleep func(context.Context, time.Duration) error
	log   zerolog.Logger
}

// New returns an Enricher that pauses cfg.EnrichPause after every
// cfg.EnrichBatch records.
func New(fetch DetailsFetcher, cfg types.ScanConfig, log zerolog.Logger) *Enricher {
	return &Enricher{
		fetch: fetch,
		batch: cfg.EnrichBatch,
		pause: cfg.EnrichPause,
		sleep: httputil.Sleep,
		log:   log,
	}
}

// Enrich mutates every Record in s in place, writing one progress line per
// record to w. A failed lookup leaves that Record's enrichment fields nil
// and the pass continues.
func (e *Enricher) Enrich(ctx context.Context, s *store.Store, w io.Writer) Result {
	var res Result
	total := s.Len()
	fmt.Fprintf(w, "\nenriching %d places with details...\n", total)

	for i, rec := range s.All() {
		n := i + 1
		fmt.Fprintf(w, "  [%d/%d] %s\n", n, total, rec.Name)

		d, err := e.fetch.Details(ctx, rec.PlaceID)
		if err != nil {
			e.log.Warn().Err(err).Str("place_id", rec.PlaceID).Msg("details fetch failed")
			res.Failed++
		} else {
			Merge(rec, d)
			res.Enriched++
		}

		if e.batch > 0 && n%e.batch == 0 {
			_ = e.sleep(ctx, e.pause)
		}
	}

	fmt.Fprintf(w, "enrichment summary: %d enriched, %d failed (total: %d)\n",
		res.Enriched, res.Failed, res.Total())
	return res
}

// Merge copies the details fields into rec. The formatted address falls
// back to the base address; phone and website become "" when absent
// upstream; hours are joined into one display string; open-now and the
// description are copied only when present.
func Merge(rec *types.Record, d *types.PlaceDetails) {
	addr := rec.Address
	if d.FormattedAddress != nil {
		addr = *d.FormattedAddress
	}
	rec.FormattedAddress = &addr
	rec.Phone = valueOrEmpty(d.FormattedPhoneNumber)
	rec.Website = valueOrEmpty(d.Website)

	var hours string
	if d.OpeningHours != nil {
		hours = strings.Join(d.OpeningHours.WeekdayText, hoursSeparator)
		if d.OpeningHours.OpenNow != nil {
			open := *d.OpeningHours.OpenNow
			rec.OpenNow = &open
		}
	}
	rec.Hours = &hours

	if d.EditorialSummary != nil && d.EditorialSummary.Overview != "" {
		desc := d.EditorialSummary.Overview
		rec.Description = &desc
	}
}

func valueOrEmpty(s *string) *string {
	v := ""
	if s != nil {
		v = *s
	}
	return &v
}
