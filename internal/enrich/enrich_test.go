// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/places-scan/internal/classify"
	"github.com/pdiddy/places-scan/internal/places"
	"github.com/pdiddy/places-scan/internal/store"
	"github.com/pdiddy/places-scan/pkg/types"
)

// --- mock fetcher ---

type mockFetcher struct {
	details map[string]*types.PlaceDetails
	errs    map[string]error
	calls   []string
}

func (m *mockFetcher) Details(_ context.Context, id string) (*types.PlaceDetails, error) {
	m.calls = append(m.calls, id)
	if err := m.errs[id]; err != nil {
		return nil, err
	}
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return &types.PlaceDetails{PlaceID: id}, nil
}

func ptr[T any](v T) *T { return &v }

func seededStore(t *testing.T, ids ...string) *store.Store {
	t.Helper()
	s := store.New(classify.New(types.DefaultScanConfig()))
	for _, id := range ids {
		out := s.Insert(types.PlaceResult{
			PlaceID:  id,
			Name:     "Cafe " + id,
			Vicinity: id + " Ave",
			Geometry: &types.Geometry{Location: &types.LatLng{Lat: 53.5, Lng: -113.5}},
			Types:    []string{"cafe"},
		})
		require.Equal(t, store.Added, out)
	}
	return s
}

func TestEnrichFailureIsolation(t *testing.T) {
	s := seededStore(t, "x", "y")
	f := &mockFetcher{
		errs: map[string]error{"x": errors.New("connection reset")},
		details: map[string]*types.PlaceDetails{
			"y": {FormattedPhoneNumber: ptr("(780) 555-0199"), Website: ptr("https://y.example")},
		},
	}

	var out bytes.Buffer
	res := New(f, types.DefaultScanConfig(), zerolog.Nop()).Enrich(context.Background(), s, &out)

	assert.Equal(t, Result{Enriched: 1, Failed: 1}, res)
	assert.Equal(t, []string{"x", "y"}, f.calls)

	x, _ := s.Get("x")
	assert.False(t, x.Enriched())
	assert.Nil(t, x.FormattedAddress)
	assert.Nil(t, x.Phone)
	assert.Nil(t, x.Website)
	assert.Nil(t, x.OpenNow)

	y, _ := s.Get("y")
	assert.True(t, y.Enriched())
	assert.Equal(t, "(780) 555-0199", *y.Phone)
	assert.Equal(t, "https://y.example", *y.Website)
	assert.Contains(t, out.String(), "[2/2] Cafe y")
	assert.Contains(t, out.String(), "1 enriched, 1 failed (total: 2)")
}

func TestEnrichStatusErrorIsIsolated(t *testing.T) {
	s := seededStore(t, "gone", "next")
	f := &mockFetcher{
		errs: map[string]error{"gone": &places.StatusError{Status: "NOT_FOUND"}},
		details: map[string]*types.PlaceDetails{
			"next": {FormattedPhoneNumber: ptr("(780) 555-0142")},
		},
	}

	res := New(f, types.DefaultScanConfig(), zerolog.Nop()).Enrich(context.Background(), s, &bytes.Buffer{})

	assert.Equal(t, Result{Enriched: 1, Failed: 1}, res)
	gone, _ := s.Get("gone")
	assert.False(t, gone.Enriched())
	assert.Nil(t, gone.Phone)

	next, _ := s.Get("next")
	require.True(t, next.Enriched())
	assert.Equal(t, "(780) 555-0142", *next.Phone)
	require.NotNil(t, next.Website)
	assert.Empty(t, *next.Website)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		details *types.PlaceDetails
		check   func(t *testing.T, r *types.Record)
	}{
		{
			name: "full details",
			details: &types.PlaceDetails{
				FormattedAddress:     ptr("1 Main St NW, Edmonton, AB"),
				FormattedPhoneNumber: ptr("(780) 555-0100"),
				Website:              ptr("https://cafe.example"),
				OpeningHours: &types.OpeningHours{
					OpenNow:     ptr(false),
					WeekdayText: []string{"Monday: 7:00 AM – 5:00 PM", "Tuesday: Closed"},
				},
				EditorialSummary: &types.EditorialSummary{Overview: "Small-batch roaster."},
			},
			check: func(t *testing.T, r *types.Record) {
				assert.Equal(t, "1 Main St NW, Edmonton, AB", *r.FormattedAddress)
				assert.Equal(t, "(780) 555-0100", *r.Phone)
				assert.Equal(t, "https://cafe.example", *r.Website)
				assert.Equal(t, "Monday: 7:00 AM – 5:00 PM; Tuesday: Closed", *r.Hours)
				require.NotNil(t, r.OpenNow)
				assert.False(t, *r.OpenNow)
				assert.Equal(t, "Small-batch roaster.", *r.Description)
			},
		},
		{
			name:    "empty details",
			details: &types.PlaceDetails{},
			check: func(t *testing.T, r *types.Record) {
				assert.Equal(t, "1 Main St", *r.FormattedAddress, "falls back to base address")
				assert.Equal(t, "", *r.Phone)
				assert.Equal(t, "", *r.Website)
				assert.Equal(t, "", *r.Hours)
				assert.Nil(t, r.OpenNow)
				assert.Nil(t, r.Description)
				assert.True(t, r.Enriched())
			},
		},
		{
			name: "hours without open-now flag",
			details: &types.PlaceDetails{
				OpeningHours: &types.OpeningHours{WeekdayText: []string{"Sunday: Closed"}},
			},
			check: func(t *testing.T, r *types.Record) {
				assert.Equal(t, "Sunday: Closed", *r.Hours)
				assert.Nil(t, r.OpenNow)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &types.Record{PlaceID: "p", Name: "Cafe", Address: "1 Main St"}
			Merge(rec, tt.details)
			tt.check(t, rec)
			assert.Equal(t, "1 Main St", rec.Address, "base address is untouched")
		})
	}
}

func TestEnrichPacing(t *testing.T) {
	s := seededStore(t, "a", "b", "c", "d", "e")
	cfg := types.DefaultScanConfig()
	cfg.EnrichBatch = 2
	cfg.EnrichPause = 250 * time.Millisecond

	e := New(&mockFetcher{}, cfg, zerolog.Nop())
	var pauses []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	var out bytes.Buffer
	res := e.Enrich(context.Background(), s, &out)

	assert.Equal(t, 5, res.Enriched)
	// After records 2 and 4.
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, pauses)
}

func TestEnrichEmptyStore(t *testing.T) {
	s := seededStore(t)
	f := &mockFetcher{}
	var out bytes.Buffer
	res := New(f, types.DefaultScanConfig(), zerolog.Nop()).Enrich(context.Background(), s, &out)
	assert.Zero(t, res.Total())
	assert.Empty(t, f.calls)
}
