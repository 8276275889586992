package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by ScanConfig.Validate when no API key was
// resolved. It is checked before any network activity.
var ErrMissingAPIKey = errors.New("places API key not set (use --api-key, PLACES_API_KEY, .secrets/places-api-key, or a .env file)")

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "places-scan/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScanConfig holds every parameter of one scan run. It is built once by the
// CLI and passed into the grid, search, classify, and enrich stages.
type ScanConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates every upstream request.
	APIKey string `json:"-" yaml:"-"`

	// Bounds is the nominal region being surveyed.
	Bounds Bounds `json:"bounds" yaml:"bounds"`

	// GridStep is the spacing between grid points, in degrees.
	GridStep float64 `json:"grid_step" yaml:"grid_step"`

	// Radius is the nearby-search radius in meters. It must cover the
	// centre of every grid cell (see Bounds.MinCoverageRadius).
	Radius int `json:"radius" yaml:"radius"`

	// Types and Keywords are the search filters; each grid point is searched
	// once per entry, with exactly one filter per call.
	Types    []string `json:"types" yaml:"types"`
	Keywords []string `json:"keywords" yaml:"keywords"`

	// RegionMargin widens Bounds for the region check, in degrees.
	RegionMargin float64 `json:"region_margin" yaml:"region_margin"`

	// AllowTypes, AllowNameKeywords and DenyNameKeywords drive the relevance check.
	AllowTypes        []string `json:"allow_types" yaml:"allow_types"`
	AllowNameKeywords []string `json:"allow_name_keywords" yaml:"allow_name_keywords"`
	DenyNameKeywords  []string `json:"deny_name_keywords" yaml:"deny_name_keywords"`

	// PageTokenDelay is the wait before a continuation token can be used.
	PageTokenDelay time.Duration `json:"page_token_delay" yaml:"page_token_delay"`

	// QuotaCooldown is the wait after an OVER_QUERY_LIMIT status.
	QuotaCooldown time.Duration `json:"quota_cooldown" yaml:"quota_cooldown"`

	// MaxQuotaRetries caps the quota waits for a single request.
	MaxQuotaRetries int `json:"max_quota_retries" yaml:"max_quota_retries"`

	// SearchDelay is the pause after every search call.
	SearchDelay time.Duration `json:"search_delay" yaml:"search_delay"`

	// EnrichBatch and EnrichPause pace the details lookups: after every
	// EnrichBatch records the enricher sleeps for EnrichPause.
	EnrichBatch int           `json:"enrich_batch" yaml:"enrich_batch"`
	EnrichPause time.Duration `json:"enrich_pause" yaml:"enrich_pause"`
}

// DefaultScanConfig returns the settings of the Edmonton cafe survey.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "places-scan/0.1",
		},
		Bounds:   Bounds{North: 53.7, South: 53.4, East: -113.3, West: -113.7},
		GridStep: 0.05,
		Radius:   3500,
		Types:    []string{"cafe", "coffee_shop", "bakery"},
		Keywords: []string{"cafe", "coffee", "espresso", "latte", "tea house", "bubble tea", "boba"},

		RegionMargin: 0.1,
		AllowTypes:   []string{"cafe", "coffee_shop", "bakery", "restaurant", "food", "bar"},
		AllowNameKeywords: []string{
			"cafe", "coffee", "espresso", "latte", "cappuccino", "tea", "boba", "bubble",
			"bakery", "patisserie", "bistro", "beans", "brew", "roast", "starbucks",
			"tim hortons", "second cup", "good earth", "blenz",
		},
		DenyNameKeywords: []string{
			"gas station", "convenience store", "hotel", "hospital", "school",
			"university", "library", "gym", "bank", "car wash",
		},

		PageTokenDelay:  2 * time.Second,
		QuotaCooldown:   60 * time.Second,
		MaxQuotaRetries: 5,
		SearchDelay:     500 * time.Millisecond,
		EnrichBatch:     10,
		EnrichPause:     1 * time.Second,
	}
}

// Searches returns the number of search calls one full traversal issues
// per grid point.
func (c ScanConfig) Searches() int {
	return len(c.Types) + len(c.Keywords)
}

// Validate checks the configuration before any network activity.
func (c ScanConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.GridStep <= 0 {
		return fmt.Errorf("grid step must be positive, got %v", c.GridStep)
	}
	if need := c.Bounds.MinCoverageRadius(c.GridStep); float64(c.Radius) < need {
		return fmt.Errorf("radius %dm leaves coverage gaps for a %.4f° grid (need at least %.0fm)", c.Radius, c.GridStep, need)
	}
	if c.Searches() == 0 {
		return fmt.Errorf("no search filters configured: provide at least one type or keyword")
	}
	if c.RegionMargin < 0 {
		return fmt.Errorf("region margin must not be negative, got %v", c.RegionMargin)
	}
	return nil
}

// Sink names accepted in OutputConfig.Sinks.
const (
	SinkCSV      = "csv"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkRDS      = "rds"
	SinkYAML     = "yaml"
)

// OutputConfig selects and locates the output destinations of a run.
type OutputConfig struct {
	// Dir is the directory for the CSV, RDS and YAML outputs.
	Dir string `json:"dir" yaml:"dir"`

	// Name is the base file name (without extension) of the outputs.
	Name string `json:"name" yaml:"name"`

	// Sinks lists the enabled destinations. CSV is always written.
	Sinks []string `json:"sinks" yaml:"sinks"`

	// SQLitePath is the database file for the sqlite sink.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres sink.
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`

	// Table is the relational table replaced on every run.
	Table string `json:"table" yaml:"table"`

	// RImage is the container image used when Rscript is not installed.
	RImage string `json:"r_image" yaml:"r_image"`
}

// DefaultOutputConfig returns the output layout of the ellis-0 scan.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:        "data-private/derived/ellis-0",
		Name:       "ellis-0-scan",
		Sinks:      []string{SinkCSV, SinkSQLite, SinkRDS},
		SQLitePath: "data-private/derived/global-data.sqlite",
		Table:      "ellis_0_cafes",
		RImage:     "rocker/tidyverse:latest",
	}
}

// Enabled reports whether the named sink is selected. CSV is always enabled
// because the RDS conversion and the partial save read from it.
func (o OutputConfig) Enabled(name string) bool {
	if name == SinkCSV {
		return true
	}
	for _, s := range o.Sinks {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}
