// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether a raw search result is a relevant
// business inside the surveyed region. The relevance check is a fixed
// allow/deny heuristic over category tags and the lowercased name; it is
// not a scored classifier.
package classify

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/pdiddy/places-scan/pkg/types"
)

// Classifier holds the static region and allow/deny lists of one run.
type Classifier struct {
	region     orb.Bound
	allowTypes map[string]struct{}
	allowNames []string
	denyNames  []string
}

// New builds a Classifier from the scan configuration. The region is the
// configured bounds padded by RegionMargin on every side.
func New(cfg types.ScanConfig) *Classifier {
	c := &Classifier{
		region:     cfg.Bounds.Bound().Pad(cfg.RegionMargin),
		allowTypes: make(map[string]struct{}, len(cfg.AllowTypes)),
		allowNames: lowerAll(cfg.AllowNameKeywords),
		denyNames:  lowerAll(cfg.DenyNameKeywords),
	}
	for _, t := range cfg.AllowTypes {
		c.allowTypes[strings.ToLower(t)] = struct{}{}
	}
	return c
}

// InRegion reports whether the coordinate lies within the padded region.
// Points on the padded edge are inside.
func (c *Classifier) InRegion(lat, lng float64) bool {
	return c.region.Contains(orb.Point{lng, lat})
}

// IsRelevant reports whether the result qualifies: its tags intersect the
// allow list or its name contains an allow keyword, and its name contains
// no deny keyword. A deny match always wins.
func (c *Classifier) IsRelevant(p types.PlaceResult) bool {
	name := strings.ToLower(p.Name)
	if containsAny(name, c.denyNames) {
		return false
	}
	return c.hasAllowedType(p.Types) || containsAny(name, c.allowNames)
}

// Accept composes the region and relevance checks for a result with
// coordinates. Results without coordinates are never accepted.
func (c *Classifier) Accept(p types.PlaceResult) bool {
	lat, lng, ok := p.Location()
	if !ok {
		return false
	}
	return c.InRegion(lat, lng) && c.IsRelevant(p)
}

func (c *Classifier) hasAllowedType(tags []string) bool {
	for _, t := range tags {
		if _, ok := c.allowTypes[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
