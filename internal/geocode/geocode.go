// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package geocode resolves free-text place names to coordinates against a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	rwerr "github.com/railwise/railwise/pkg/errors"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "railwise (+https://github.com/railwise/railwise)"
	DefaultLimit     = 5
	DefaultTimeout   = 10 * time.Second

	// LondonViewbox is "west,north,east,south" around Greater London.
	LondonViewbox = "-0.5104,51.6919,0.3340,51.2868"
)

const maxResponseBytes = 4 << 20

// Place is a geocoding hit.
type Place struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Name       string  `json:"name"`
	Type       string  `json:"type,omitempty"`
	Importance float64 `json:"importance,omitempty"`
}

// Coordinates returns the point; a zero point is treated as missing.
func (p Place) Coordinates() (float64, float64, bool) {
	return p.Lat, p.Lon, p.Lat != 0 || p.Lon != 0
}

// StopID is always empty; places are addressed by coordinates.
func (p Place) StopID() string { return "" }

// Config holds geocoder settings. Zero values take the package defaults.
type Config struct {
	BaseURL    string
	UserAgent  string
	Email      string
	Viewbox    string
	Limit      int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Geocoder queries the search endpoint. Identical concurrent lookups share
// one request.
type Geocoder struct {
	baseURL    string
	userAgent  string
	email      string
	viewbox    string
	limit      int
	timeout    time.Duration
	httpClient *http.Client
	group      singleflight.Group
}

// New builds a Geocoder from cfg.
func New(cfg Config) (*Geocoder, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, rwerr.Wrapf(err, rwerr.CodeConfigValidateInvalidValue, "geocode: invalid base URL %q", base)
	}

	g := &Geocoder{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		email:      cfg.Email,
		viewbox:    cfg.Viewbox,
		limit:      cfg.Limit,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
	}
	if g.userAgent == "" {
		g.userAgent = DefaultUserAgent
	}
	if g.limit <= 0 {
		g.limit = DefaultLimit
	}
	if g.timeout == 0 {
		g.timeout = DefaultTimeout
	}
	if g.httpClient == nil {
		g.httpClient = http.DefaultClient
	}
	return g, nil
}

// wirePlace is the jsonv2 search record; coordinates arrive as strings.
type wirePlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Search returns up to the configured limit of places matching text, in the
// upstream's relevance order. No match is an empty slice, not an error.
func (g *Geocoder) Search(ctx context.Context, text string) ([]Place, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, rwerr.New(rwerr.CodeGeocodeRequestInvalid, "geocode: query is required")
	}

	v, err, shared := g.group.Do(strings.ToLower(text), func() (any, error) {
		return g.search(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("geocode lookup shared", "query", text)
	}
	places := v.([]Place)
	return append([]Place(nil), places...), nil
}

func (g *Geocoder) search(ctx context.Context, text string) ([]Place, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(g.limit))
	if g.viewbox != "" {
		q.Set("viewbox", g.viewbox)
		q.Set("bounded", "1")
	}
	if g.email != "" {
		q.Set("email", g.email)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeGeocodeRequestInvalid, "geocode: building request")
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeGeocodeUpstreamFailure, "geocode: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeGeocodeUpstreamFailure, "geocode: reading response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, rwerr.New(rwerr.CodeGeocodeUpstreamFailure,
			fmt.Sprintf("geocode: upstream returned HTTP %d", resp.StatusCode),
			rwerr.FieldStatus(resp.StatusCode))
	}

	var raw []wirePlace
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeGeocodeUpstreamFailure, "geocode: decoding response")
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		name := r.Name
		if name == "" {
			name, _, _ = strings.Cut(r.DisplayName, ",")
		}
		places = append(places, Place{
			Lat:        lat,
			Lon:        lon,
			Name:       strings.TrimSpace(name),
			Type:       r.Type,
			Importance: r.Importance,
		})
		if len(places) == g.limit {
			break
		}
	}

	slog.Debug("geocode search",
		"query", text,
		"results", len(places),
		"elapsed", time.Since(start),
	)
	return places, nil
}
