// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/railwise/railwise/internal/geocode"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeocoder(t *testing.T, h http.HandlerFunc, cfg geocode.Config) *geocode.Geocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	cfg.HTTPClient = srv.Client()
	g, err := geocode.New(cfg)
	require.NoError(t, err)
	return g
}

func TestSearch_ParsesResults(t *testing.T) {
	var query url.Values
	var ua string
	g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		query = r.URL.Query()
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[
  {"lat":"51.5033","lon":"-0.1196","name":"London Eye","display_name":"London Eye, Lambeth, London","type":"attraction","importance":0.71},
  {"lat":"bad","lon":"-0.1","name":"Broken"},
  {"lat":"51.5010","lon":"-0.1416","name":"","display_name":"Buckingham Palace, Westminster, London","type":"palace"}
]`))
	}, geocode.Config{UserAgent: "railwise-test", Email: "ops@example.com", Viewbox: geocode.LondonViewbox, Limit: 3})

	got, err := g.Search(context.Background(), "  london eye ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, geocode.Place{Lat: 51.5033, Lon: -0.1196, Name: "London Eye", Type: "attraction", Importance: 0.71}, got[0])
	assert.Equal(t, "Buckingham Palace", got[1].Name)

	assert.Equal(t, "london eye", query.Get("q"))
	assert.Equal(t, "jsonv2", query.Get("format"))
	assert.Equal(t, "3", query.Get("limit"))
	assert.Equal(t, geocode.LondonViewbox, query.Get("viewbox"))
	assert.Equal(t, "1", query.Get("bounded"))
	assert.Equal(t, "ops@example.com", query.Get("email"))
	assert.Equal(t, "railwise-test", ua)
}

func TestSearch_DefaultsOmitViewbox(t *testing.T) {
	var query url.Values
	var ua string
	g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[]`))
	}, geocode.Config{})

	got, err := g.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "5", query.Get("limit"))
	assert.False(t, query.Has("viewbox"))
	assert.False(t, query.Has("email"))
	assert.Equal(t, geocode.DefaultUserAgent, ua)
}

func TestSearch_EmptyQuery(t *testing.T) {
	g, err := geocode.New(geocode.Config{})
	require.NoError(t, err)
	_, err = g.Search(context.Background(), " ")
	assert.True(t, rwerr.HasCode(err, rwerr.CodeGeocodeRequestInvalid))
}

func TestSearch_UpstreamErrors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":"not a list"}`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			g := newGeocoder(t, h, geocode.Config{})
			_, err := g.Search(context.Background(), "bank")
			assert.True(t, rwerr.HasCode(err, rwerr.CodeGeocodeUpstreamFailure), "got %v", err)
		})
	}
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	_, err := geocode.New(geocode.Config{BaseURL: "not a url"})
	assert.True(t, rwerr.HasCode(err, rwerr.CodeConfigValidateInvalidValue))
}
