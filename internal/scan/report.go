// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/places-scan/pkg/types"
)

const (
	topRatedLimit      = 10
	topRatedMinRatings = 20
)

// Stats summarizes a finished record set.
type Stats struct {
	Total             int
	WithRating        int
	AverageRating     float64
	WithPhone         int
	WithWebsite       int
	Operational       int
	ClosedTemporarily int
	ClosedPermanently int

	// TopRated holds up to ten records with at least twenty ratings,
	// highest rating first.
	TopRated []types.Record
}

// Summarize computes Stats over records.
func Summarize(records []types.Record) Stats {
	st := Stats{Total: len(records)}
	var ratingSum float64
	var candidates []types.Record
	for _, r := range records {
		if r.Rating != nil {
			st.WithRating++
			ratingSum += *r.Rating
			if r.UserRatingsTotal != nil && *r.UserRatingsTotal >= topRatedMinRatings {
				candidates = append(candidates, r)
			}
		}
		if nonEmpty(r.Phone) {
			st.WithPhone++
		}
		if nonEmpty(r.Website) {
			st.WithWebsite++
		}
		switch r.BusinessStatus {
		case types.StatusOperational:
			st.Operational++
		case types.StatusClosedTemporarily:
			st.ClosedTemporarily++
		case types.StatusClosedPermanently:
			st.ClosedPermanently++
		}
	}
	if st.WithRating > 0 {
		st.AverageRating = ratingSum / float64(st.WithRating)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Rating > *candidates[j].Rating
	})
	if len(candidates) > topRatedLimit {
		candidates = candidates[:topRatedLimit]
	}
	st.TopRated = candidates
	return st
}

func nonEmpty(s *string) bool { return s != nil && *s != "" }

// WriteSummary prints the run summary block.
func WriteSummary(w io.Writer, res Result) {
	st := Summarize(res.Records)
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(w, "\n%s\nSUMMARY STATISTICS\n%s\n", rule, rule)
	fmt.Fprintf(w, "Scan ID:            %s\n", res.ID)
	fmt.Fprintf(w, "Total places:       %d\n", st.Total)
	fmt.Fprintf(w, "With ratings:       %d\n", st.WithRating)
	fmt.Fprintf(w, "Average rating:     %.2f\n", st.AverageRating)
	fmt.Fprintf(w, "With phone:         %d\n", st.WithPhone)
	fmt.Fprintf(w, "With website:       %d\n", st.WithWebsite)
	fmt.Fprintf(w, "Operational:        %d\n", st.Operational)
	fmt.Fprintf(w, "Temporarily closed: %d\n", st.ClosedTemporarily)
	fmt.Fprintf(w, "Permanently closed: %d\n", st.ClosedPermanently)
	fmt.Fprintf(w, "API calls:          %d\n", res.Session.APICalls)
	if res.Session.QuotaWaits > 0 || res.Session.QuotaExhausted > 0 {
		fmt.Fprintf(w, "Quota waits:        %d (%d searches abandoned)\n", res.Session.QuotaWaits, res.Session.QuotaExhausted)
	}
	if res.Enrichment.Total() > 0 {
		fmt.Fprintf(w, "Enriched:           %d (%d failed)\n", res.Enrichment.Enriched, res.Enrichment.Failed)
	}

	if len(st.TopRated) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTop %d highest rated (at least %d ratings):\n", len(st.TopRated), topRatedMinRatings)
	for _, r := range st.TopRated {
		fmt.Fprintf(w, "  %s: %.1f (%d reviews)\n", r.Name, *r.Rating, *r.UserRatingsTotal)
	}
}
