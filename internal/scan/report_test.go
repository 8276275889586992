// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/places-scan/internal/enrich"
	"github.com/pdiddy/places-scan/internal/places"
	"github.com/pdiddy/places-scan/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func TestSummarize(t *testing.T) {
	records := []types.Record{
		{Name: "A", Rating: ptr(4.0), UserRatingsTotal: ptr(100), BusinessStatus: types.StatusOperational, Phone: ptr("1"), Website: ptr("")},
		{Name: "B", Rating: ptr(5.0), UserRatingsTotal: ptr(5), BusinessStatus: types.StatusClosedTemporarily},
		{Name: "C", Rating: ptr(3.0), UserRatingsTotal: ptr(20), BusinessStatus: types.StatusClosedPermanently, Website: ptr("https://c.example")},
		{Name: "D"},
	}
	st := Summarize(records)

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.WithRating)
	assert.InDelta(t, 4.0, st.AverageRating, 1e-9)
	assert.Equal(t, 1, st.WithPhone)
	assert.Equal(t, 1, st.WithWebsite, "empty website does not count")
	assert.Equal(t, 1, st.Operational)
	assert.Equal(t, 1, st.ClosedTemporarily)
	assert.Equal(t, 1, st.ClosedPermanently)

	// B has too few ratings to rank.
	require.Len(t, st.TopRated, 2)
	assert.Equal(t, "A", st.TopRated[0].Name)
	assert.Equal(t, "C", st.TopRated[1].Name)
}

func TestSummarizeTopRatedLimit(t *testing.T) {
	var records []types.Record
	for i := range 15 {
		records = append(records, types.Record{
			Name:             fmt.Sprintf("P%02d", i),
			Rating:           ptr(3.0 + float64(i)/10),
			UserRatingsTotal: ptr(50),
		})
	}
	st := Summarize(records)
	require.Len(t, st.TopRated, topRatedLimit)
	assert.Equal(t, "P14", st.TopRated[0].Name)
	assert.Equal(t, "P05", st.TopRated[9].Name)
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	assert.Zero(t, st.Total)
	assert.Zero(t, st.AverageRating)
	assert.Empty(t, st.TopRated)
}

func TestWriteSummary(t *testing.T) {
	res := Result{
		ID: "scan-1",
		Records: []types.Record{
			{Name: "Alpha Coffee", Rating: ptr(4.6), UserRatingsTotal: ptr(210), BusinessStatus: types.StatusOperational},
		},
		Session:    places.Session{APICalls: 42, QuotaWaits: 2, QuotaExhausted: 1},
		Enrichment: enrich.Result{Enriched: 1},
	}
	var buf bytes.Buffer
	WriteSummary(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "SUMMARY STATISTICS")
	assert.Contains(t, out, "Scan ID:            scan-1")
	assert.Contains(t, out, "Total places:       1")
	assert.Contains(t, out, "Average rating:     4.60")
	assert.Contains(t, out, "API calls:          42")
	assert.Contains(t, out, "Quota waits:        2 (1 searches abandoned)")
	assert.Contains(t, out, "Alpha Coffee: 4.6 (210 reviews)")
}
