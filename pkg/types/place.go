// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the places-scan pipeline:
// grid points, upstream search and details payloads, the canonical Record,
// and the configuration values passed into each stage.
package types

import "strings"

// GridPoint is one geographic coordinate sampled for search coverage.
type GridPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// LatLng is the coordinate pair used by the upstream API.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps the location of a place as returned upstream.
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// PlaceResult is one unprocessed record from a nearby search. Optional
// upstream fields are pointers so that "absent" and "zero" stay distinct.
type PlaceResult struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Vicinity         string    `json:"vicinity,omitempty"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
	Geometry         *Geometry `json:"geometry,omitempty"`
	Types            []string  `json:"types,omitempty"`
	Rating           *float64  `json:"rating,omitempty"`
	UserRatingsTotal *int      `json:"user_ratings_total,omitempty"`
	BusinessStatus   string    `json:"business_status,omitempty"`
	PriceLevel       *int      `json:"price_level,omitempty"`
}

// Location returns the coordinates of the result and whether they were present.
func (p PlaceResult) Location() (lat, lng float64, ok bool) {
	if p.Geometry == nil || p.Geometry.Location == nil {
		return 0, 0, false
	}
	return p.Geometry.Location.Lat, p.Geometry.Location.Lng, true
}

// OpeningHours is the structured hours block of a details response.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// EditorialSummary carries the short upstream description of a place.
type EditorialSummary struct {
	Overview string `json:"overview,omitempty"`
}

// PlaceDetails is the extended field set returned by a details lookup.
type PlaceDetails struct {
	PlaceID              string            `json:"place_id"`
	Name                 string            `json:"name"`
	FormattedAddress     *string           `json:"formatted_address,omitempty"`
	FormattedPhoneNumber *string           `json:"formatted_phone_number,omitempty"`
	Website              *string           `json:"website,omitempty"`
	OpeningHours         *OpeningHours     `json:"opening_hours,omitempty"`
	EditorialSummary     *EditorialSummary `json:"editorial_summary,omitempty"`
}

// BusinessStatus is the operating status reported for a place.
type BusinessStatus string

const (
	StatusOperational       BusinessStatus = "OPERATIONAL"
	StatusClosedTemporarily BusinessStatus = "CLOSED_TEMPORARILY"
	StatusClosedPermanently BusinessStatus = "CLOSED_PERMANENTLY"
	StatusUnknown           BusinessStatus = ""
)

// ParseBusinessStatus maps an upstream status string onto a BusinessStatus.
// Unrecognized values map to StatusUnknown.
func ParseBusinessStatus(s string) BusinessStatus {
	switch BusinessStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOperational:
		return StatusOperational
	case StatusClosedTemporarily:
		return StatusClosedTemporarily
	case StatusClosedPermanently:
		return StatusClosedPermanently
	default:
		return StatusUnknown
	}
}

// Record is the canonical stored entity for one unique place. The base
// fields are set once on first acceptance; the enrichment fields stay nil
// until a details lookup succeeds.
type Record struct {
	PlaceID          string         `json:"place_id" yaml:"place_id"`
	Name             string         `json:"name" yaml:"name"`
	Address          string         `json:"address" yaml:"address"`
	Lat              float64        `json:"lat" yaml:"lat"`
	Lng              float64        `json:"lng" yaml:"lng"`
	Types            []string       `json:"types" yaml:"types"`
	Rating           *float64       `json:"rating,omitempty" yaml:"rating,omitempty"`
	UserRatingsTotal *int           `json:"user_ratings_total,omitempty" yaml:"user_ratings_total,omitempty"`
	BusinessStatus   BusinessStatus `json:"business_status,omitempty" yaml:"business_status,omitempty"`
	PriceLevel       *int           `json:"price_level,omitempty" yaml:"price_level,omitempty"`

	FormattedAddress *string `json:"formatted_address,omitempty" yaml:"formatted_address,omitempty"`
	Phone            *string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website          *string `json:"website,omitempty" yaml:"website,omitempty"`
	Hours            *string `json:"hours,omitempty" yaml:"hours,omitempty"`
	OpenNow          *bool   `json:"is_open_now,omitempty" yaml:"is_open_now,omitempty"`
	Description      *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewRecord projects the accepted fields of a search result into a Record.
// The address prefers the vicinity and falls back to the formatted address.
func NewRecord(p PlaceResult) Record {
	lat, lng, _ := p.Location()
	addr := p.Vicinity
	if addr == "" {
		addr = p.FormattedAddress
	}
	return Record{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Address:          addr,
		Lat:              lat,
		Lng:              lng,
		Types:            append([]string(nil), p.Types...),
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
		BusinessStatus:   ParseBusinessStatus(p.BusinessStatus),
		PriceLevel:       p.PriceLevel,
	}
}

// Enriched reports whether a details lookup has been merged into the record.
func (r Record) Enriched() bool {
	return r.Hours != nil
}
