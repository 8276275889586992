// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan runs one survey: it walks the grid, searches every point
// with every filter, admits results into the store, and enriches what was
// found. Everything runs on the calling goroutine.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/places-scan/internal/classify"
	"github.com/pdiddy/places-scan/internal/enrich"
	"github.com/pdiddy/places-scan/internal/grid"
	"github.com/pdiddy/places-scan/internal/httputil"
	"github.com/pdiddy/places-scan/internal/places"
	"github.com/pdiddy/places-scan/internal/store"
	"github.com/pdiddy/places-scan/pkg/types"
)

// ErrInterrupted is returned when the context is cancelled during
// discovery. The accompanying Result holds the records found so far.
var ErrInterrupted = errors.New("scan interrupted")

// Searcher is the upstream API surface a scan needs.
// *places.Client implements it.
type Searcher interface {
	Nearby(ctx context.Context, pt types.GridPoint, f places.Filter) []types.PlaceResult
	enrich.DetailsFetcher
	Session() places.Session
}

// Discovery counts what happened to the raw results of the search phase.
type Discovery struct {
	Added     int
	Duplicate int
	Rejected  int
}

// Total returns the number of raw results seen.
func (d Discovery) Total() int { return d.Added + d.Duplicate + d.Rejected }

// Result is the outcome of one run.
type Result struct {
	ID       string
	Started  time.Time
	Finished time.Time

	Points   int
	Searches int

	Discovery  Discovery
	Enrichment enrich.Result
	Session    places.Session

	// Records is the final collection ordered by name.
	Records []types.Record
}

// Options toggles optional phases.
type Options struct {
	// SkipEnrich leaves every Record with only its search fields.
	SkipEnrich bool
}

// Scanner wires the grid, search client, classifier, store and enricher
// for one configuration.
type Scanner struct {
	cfg    types.ScanConfig
	search Searcher
	log    zerolog.Logger
	out    io.Writer
	id     string
	sleep  func(context.Context, time.Duration) error
}

// New returns a Scanner writing progress lines to out. Every Scanner gets a
// fresh run identifier.
func New(cfg types.ScanConfig, search Searcher, log zerolog.Logger, out io.Writer) *Scanner {
	return &Scanner{
		cfg:    cfg,
		search: search,
		log:    log,
		out:    out,
		id:     uuid.NewString(),
		sleep:  httputil.Sleep,
	}
}

// ID returns the run identifier stored with the output.
func (s *Scanner) ID() string { return s.id }

// Run executes discovery and then enrichment. When ctx is cancelled during
// discovery, Run stops after the current search and returns ErrInterrupted
// together with the partial records. Enrichment ignores cancellation of ctx.
func (s *Scanner) Run(ctx context.Context, opts Options) (Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return Result{}, err
	}
	g := grid.New(s.cfg.Bounds, s.cfg.GridStep)
	filters := places.Filters(s.cfg)
	st := store.New(classify.New(s.cfg))

	res := Result{
		ID:       s.id,
		Started:  time.Now(),
		Points:   g.Len(),
		Searches: g.Len() * len(filters),
	}
	log := s.log.With().Str("scan_id", s.id).Logger()
	log.Info().Int("points", res.Points).Int("searches", res.Searches).Msg("scan started")

	fmt.Fprintf(s.out, "Executing %d searches across %d grid points\n", res.Searches, res.Points)

	interrupted := s.discover(ctx, g, filters, st, &res.Discovery)
	fmt.Fprintf(s.out, "\nDiscovery summary: %d unique places from %d results (%d duplicates, %d rejected)\n",
		res.Discovery.Added, res.Discovery.Total(), res.Discovery.Duplicate, res.Discovery.Rejected)

	if interrupted {
		log.Warn().Int("places", st.Len()).Msg("scan interrupted during discovery")
		return s.finish(res, st), ErrInterrupted
	}

	if !opts.SkipEnrich && st.Len() > 0 {
		e := enrich.New(s.search, s.cfg, log)
		res.Enrichment = e.Enrich(context.WithoutCancel(ctx), st, s.out)
	}

	res = s.finish(res, st)
	log.Info().Int("places", len(res.Records)).Int("api_calls", res.Session.APICalls).
		Dur("elapsed", res.Finished.Sub(res.Started)).Msg("scan finished")
	return res, nil
}

// discover runs every search in grid order and reports whether ctx was
// cancelled before the traversal completed.
func (s *Scanner) discover(ctx context.Context, g *grid.Grid, filters []places.Filter, st *store.Store, d *Discovery) bool {
	total := g.Len() * len(filters)
	current := 0
	i := 0
	for pt := range g.Points() {
		i++
		fmt.Fprintf(s.out, "\nGrid point %d/%d: (%.4f, %.4f)\n", i, g.Len(), pt.Lat, pt.Lng)
		for _, f := range filters {
			current++
			results := s.search.Nearby(ctx, pt, f)
			added := 0
			for _, p := range results {
				switch st.Insert(p) {
				case store.Added:
					added++
					d.Added++
				case store.Duplicate:
					d.Duplicate++
				case store.Rejected:
					d.Rejected++
				}
			}
			fmt.Fprintf(s.out, "  search %d/%d: %s -> %d results, %d new\n", current, total, f, len(results), added)

			if ctx.Err() != nil {
				return true
			}
			if err := s.sleep(ctx, s.cfg.SearchDelay); err != nil {
				return true
			}
		}
		fmt.Fprintf(s.out, "  unique places so far: %d\n", st.Len())
	}
	return false
}

func (s *Scanner) finish(res Result, st *store.Store) Result {
	res.Records = st.Sorted()
	res.Session = s.search.Session()
	res.Finished = time.Now()
	return res
}
