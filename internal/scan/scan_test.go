// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/places-scan/internal/places"
	"github.com/pdiddy/places-scan/pkg/types"
)

// testCfg is a 2x2 grid with one type and one keyword filter.
func testCfg() types.ScanConfig {
	cfg := types.DefaultScanConfig()
	cfg.APIKey = "test-key"
	cfg.Bounds = types.Bounds{North: 53.51, South: 53.50, East: -113.49, West: -113.50}
	cfg.GridStep = 0.01
	cfg.Types = []string{"cafe"}
	cfg.Keywords = []string{"coffee"}
	cfg.PageTokenDelay = 0
	cfg.QuotaCooldown = time.Millisecond
	cfg.SearchDelay = 0
	cfg.EnrichPause = 0
	return cfg
}

func place(id, name string, tags ...string) map[string]any {
	return map[string]any{
		"place_id":           id,
		"name":               name,
		"vicinity":           id + " Jasper Ave",
		"geometry":           map[string]any{"location": map[string]float64{"lat": 53.505, "lng": -113.495}},
		"types":              tags,
		"rating":             4.2,
		"user_ratings_total": 25,
		"business_status":    "OPERATIONAL",
	}
}

// upstream is a stub Places service. Type searches return two places,
// keyword searches overlap on one of them and add a third plus one
// irrelevant result.
type upstream struct {
	mu      sync.Mutex
	nearby  int
	details []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/nearbysearch/json":
		u.nearby++
		var results []map[string]any
		if q.Get("type") == "cafe" {
			results = []map[string]any{
				place("z", "Zeta Cafe", "cafe"),
				place("a", "Alpha Coffee", "cafe", "food"),
			}
		} else {
			results = []map[string]any{
				place("a", "Alpha Coffee", "cafe", "food"),
				place("m", "Mid Bakery", "bakery"),
				place("g", "Shell Gas Station", "gas_station"),
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "OK", "results": results})
	case "/details/json":
		id := q.Get("place_id")
		u.details = append(u.details, id)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"result": map[string]any{
				"place_id":               id,
				"formatted_address":      id + " Jasper Ave, Edmonton, AB",
				"formatted_phone_number": "(780) 555-0100",
				"opening_hours": map[string]any{
					"open_now":     true,
					"weekday_text": []string{"Monday: 7 AM to 5 PM", "Tuesday: 7 AM to 5 PM"},
				},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newClient(t *testing.T, cfg types.ScanConfig, h http.Handler) *places.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c := places.NewClient(cfg, zerolog.Nop())
	c.BaseURL = ts.URL
	c.HTTP = ts.Client()
	return c
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testCfg()
	up := &upstream{}
	var out bytes.Buffer
	s := New(cfg, newClient(t, cfg, up), zerolog.Nop(), &out)

	res, err := s.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Points)
	assert.Equal(t, 8, res.Searches)
	assert.Equal(t, 8, up.nearby)

	names := make([]string, len(res.Records))
	for i, r := range res.Records {
		names[i] = r.Name
		assert.True(t, r.Enriched(), "%s should be enriched", r.Name)
		require.NotNil(t, r.Hours)
		assert.Equal(t, "Monday: 7 AM to 5 PM; Tuesday: 7 AM to 5 PM", *r.Hours)
		require.NotNil(t, r.Website)
		assert.Empty(t, *r.Website)
	}
	assert.Equal(t, []string{"Alpha Coffee", "Mid Bakery", "Zeta Cafe"}, names)

	// Details are looked up in discovery order, once per unique place.
	assert.Equal(t, []string{"z", "a", "m"}, up.details)

	assert.Equal(t, Discovery{Added: 3, Duplicate: 13, Rejected: 4}, res.Discovery)
	assert.Equal(t, 3, res.Enrichment.Enriched)
	assert.Equal(t, 11, res.Session.APICalls)
	assert.Equal(t, s.ID(), res.ID)
	assert.NotEmpty(t, res.ID)

	assert.Contains(t, out.String(), "Grid point 4/4")
	assert.Contains(t, out.String(), "search 8/8: keyword=coffee")
	assert.Contains(t, out.String(), "unique places so far: 3")
}

func TestRunSkipEnrich(t *testing.T) {
	cfg := testCfg()
	up := &upstream{}
	res, err := New(cfg, newClient(t, cfg, up), zerolog.Nop(), &bytes.Buffer{}).Run(context.Background(), Options{SkipEnrich: true})
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Empty(t, up.details)
	for _, r := range res.Records {
		assert.False(t, r.Enriched())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testCfg()
	cfg.APIKey = ""
	up := &upstream{}
	_, err := New(cfg, newClient(t, cfg, up), zerolog.Nop(), &bytes.Buffer{}).Run(context.Background(), Options{})
	assert.ErrorIs(t, err, types.ErrMissingAPIKey)
	assert.Zero(t, up.nearby, "no network activity before validation")
}

// cancellingSearcher returns one fixed result per call and cancels the
// run after a set number of searches.
type cancellingSearcher struct {
	cancel  context.CancelFunc
	after   int
	calls   int
	details int
}

func (c *cancellingSearcher) Nearby(_ context.Context, _ types.GridPoint, _ places.Filter) []types.PlaceResult {
	c.calls++
	if c.calls == c.after {
		c.cancel()
	}
	id := string(rune('a' + c.calls - 1))
	return []types.PlaceResult{{
		PlaceID:  id,
		Name:     "Cafe " + id,
		Geometry: &types.Geometry{Location: &types.LatLng{Lat: 53.505, Lng: -113.495}},
		Types:    []string{"cafe"},
	}}
}

func (c *cancellingSearcher) Details(context.Context, string) (*types.PlaceDetails, error) {
	c.details++
	return nil, errors.New("unexpected details call")
}

func (c *cancellingSearcher) Session() places.Session {
	return places.Session{APICalls: c.calls}
}

func TestRunInterruptedReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := &cancellingSearcher{cancel: cancel, after: 3}

	res, err := New(testCfg(), fake, zerolog.Nop(), &bytes.Buffer{}).Run(ctx, Options{})

	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 3, fake.calls, "no searches after cancellation")
	assert.Zero(t, fake.details, "no enrichment after interruption")
	require.Len(t, res.Records, 3)
	assert.Equal(t, "Cafe a", res.Records[0].Name)
	assert.Equal(t, 3, res.Session.APICalls)
}

func TestEnrichmentIgnoresCancellation(t *testing.T) {
	cfg := testCfg()
	up := &upstream{}
	c := newClient(t, cfg, up)

	// The searcher cancels the run context on its first details call; the
	// remaining lookups must still run.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(cfg, &cancelOnDetails{Client: c, cancel: cancel}, zerolog.Nop(), &bytes.Buffer{})

	res, err := s.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Enrichment.Enriched)
	assert.Len(t, up.details, 3)
}

type cancelOnDetails struct {
	*places.Client
	cancel context.CancelFunc
}

func (c *cancelOnDetails) Details(ctx context.Context, id string) (*types.PlaceDetails, error) {
	c.cancel()
	return c.Client.Details(ctx, id)
}
