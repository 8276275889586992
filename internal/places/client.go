// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package places queries the Places web service: paginated nearby search
// over a grid point and single-place details lookups. Transport failures
// and upstream status errors never escape Nearby; it returns whatever it
// accumulated. Every request counts toward the client's Session.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pdiddy/places-scan/internal/httputil"
	"github.com/pdiddy/places-scan/pkg/types"
)

// DefaultBaseURL is the Places web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Upstream status values.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusInvalidRequest = "INVALID_REQUEST"
)

// StatusError is a non-OK status reported by the upstream API.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places API status %s: %s", e.Status, e.Message)
	}
	return "places API status " + e.Status
}

// Filter selects what a nearby search looks for. Exactly one of Type and
// Keyword is set.
type Filter struct {
	Type    string
	Keyword string
}

// String renders the filter for progress output (e.g. "type=cafe").
func (f Filter) String() string {
	if f.Type != "" {
		return "type=" + f.Type
	}
	return "keyword=" + f.Keyword
}

// Filters expands the configured types and keywords into the per-point
// search order: every type first, then every keyword.
func Filters(cfg types.ScanConfig) []Filter {
	out := make([]Filter, 0, cfg.Searches())
	for _, t := range cfg.Types {
		out = append(out, Filter{Type: t})
	}
	for _, k := range cfg.Keywords {
		out = append(out, Filter{Keyword: k})
	}
	return out
}

// Session holds the counters of one run. It is not persisted.
type Session struct {
	APICalls        int
	QuotaWaits      int
	QuotaExhausted  int
	TransportErrors int
}

// Client issues nearby-search and details requests. It is used from a
// single goroutine.
type Client struct {
	// BaseURL is the service root; tests point it at an httptest server.
	BaseURL string

	HTTP *http.Client

	cfg     types.ScanConfig
	log     zerolog.Logger
	session Session
}

// NewClient returns a Client for cfg with an HTTP client using cfg.Timeout.
func NewClient(cfg types.ScanConfig, log zerolog.Logger) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		log:     log,
	}
}

// Session returns a copy of the run counters.
func (c *Client) Session() Session { return c.session }

type nearbyResponse struct {
	Status        string              `json:"status"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	Results       []types.PlaceResult `json:"results"`
	NextPageToken string              `json:"next_page_token,omitempty"`
}

// Nearby runs one paginated nearby search around pt. Continuation tokens are
// used after PageTokenDelay with only the token and key as parameters.
// OVER_QUERY_LIMIT waits QuotaCooldown and repeats the same request, at most
// MaxQuotaRetries times. Any other failure ends the search and the results
// gathered so far are returned.
func (c *Client) Nearby(ctx context.Context, pt types.GridPoint, f Filter) []types.PlaceResult {
	params := url.Values{
		"location": {strconv.FormatFloat(pt.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(pt.Lng, 'f', -1, 64)},
		"radius":   {strconv.Itoa(c.cfg.Radius)},
		"key":      {c.cfg.APIKey},
	}
	if f.Type != "" {
		params.Set("type", f.Type)
	}
	if f.Keyword != "" {
		params.Set("keyword", f.Keyword)
	}

	var all []types.PlaceResult
	quotaWaits := 0
	for {
		c.log.Debug().Int("call", c.session.APICalls+1).Stringer("filter", f).Msg("nearby search")

		var resp nearbyResponse
		if err := c.get(ctx, "/nearbysearch/json", params, &resp); err != nil {
			c.session.TransportErrors++
			c.log.Error().Err(err).Stringer("filter", f).Int("partial", len(all)).Msg("nearby search aborted")
			return all
		}

		switch resp.Status {
		case StatusOK:
		case StatusZeroResults:
			return all
		case StatusOverQueryLimit:
			if quotaWaits >= c.cfg.MaxQuotaRetries {
				c.session.QuotaExhausted++
				c.log.Error().Int("retries", quotaWaits).Stringer("filter", f).Msg("quota still exceeded, giving up on this search")
				return all
			}
			quotaWaits++
			c.session.QuotaWaits++
			c.log.Warn().Dur("cooldown", c.cfg.QuotaCooldown).Int("attempt", quotaWaits).Msg("hit API quota limit, waiting")
			if err := httputil.Sleep(ctx, c.cfg.QuotaCooldown); err != nil {
				return all
			}
			continue
		default:
			c.log.Warn().Err(&StatusError{Status: resp.Status, Message: resp.ErrorMessage}).Stringer("filter", f).Msg("nearby search stopped")
			return all
		}

		all = append(all, resp.Results...)
		c.log.Debug().Int("results", len(resp.Results)).Msg("page received")

		if resp.NextPageToken == "" {
			return all
		}
		if err := httputil.Sleep(ctx, c.cfg.PageTokenDelay); err != nil {
			return all
		}
		params = url.Values{
			"pagetoken": {resp.NextPageToken},
			"key":       {c.cfg.APIKey},
		}
	}
}

// detailsFields is the field mask requested from the details endpoint.
const detailsFields = "name,formatted_address,geometry,place_id,business_status,types,rating," +
	"user_ratings_total,opening_hours,formatted_phone_number,website,price_level,editorial_summary"

type detailsResponse struct {
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Result       types.PlaceDetails `json:"result"`
}

// Details looks up the extended fields of one place. A non-OK status is
// returned as *StatusError.
func (c *Client) Details(ctx context.Context, placeID string) (*types.PlaceDetails, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailsFields},
		"key":      {c.cfg.APIKey},
	}

	var resp detailsResponse
	if err := c.get(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != StatusOK {
		return nil, &StatusError{Status: resp.Status, Message: resp.ErrorMessage}
	}
	return &resp.Result, nil
}

// get performs one counted GET against BaseURL+path and decodes the JSON body.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	c.session.APICalls++

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return fmt.Errorf("places API request: %w", redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing places response: %w", err)
	}
	return nil
}

// redact drops the request URL, which carries the API key, from transport
// errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
