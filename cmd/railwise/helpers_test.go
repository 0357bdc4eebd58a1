// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/railwise/railwise/internal/secrets"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/stretchr/testify/require"
)

// mockSecretStore is an in-memory secrets.Store keyed by "service/key".
type mockSecretStore struct {
	mu   sync.Mutex
	data map[string]string
}

var _ secrets.Store = (*mockSecretStore)(nil)

func newMockSecretStore() *mockSecretStore {
	return &mockSecretStore{data: make(map[string]string)}
}

func (m *mockSecretStore) Store(service, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[service+"/"+key] = value
	return nil
}

func (m *mockSecretStore) Retrieve(service, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[service+"/"+key]
	if !ok {
		return "", rwerr.Errorf(rwerr.CodeSecretNotFound, "not found")
	}
	return v, nil
}

func (m *mockSecretStore) Delete(service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[service+"/"+key]; !ok {
		return rwerr.Errorf(rwerr.CodeSecretNotFound, "not found")
	}
	delete(m.data, service+"/"+key)
	return nil
}

func (m *mockSecretStore) List(service string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if name, ok := strings.CutPrefix(k, service+"/"); ok {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// useSecretStore swaps the package secret store for the duration of a test.
func useSecretStore(t *testing.T, s secrets.Store) {
	t.Helper()
	orig := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return s }
	t.Cleanup(func() { secretStoreFactory = orig })
}

// fakeUpstream serves the transit endpoints the CLI calls and records the
// key query parameter of each request.
type fakeUpstream struct {
	mu    sync.Mutex
	paths []string
	keys  []string
}

func (f *fakeUpstream) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	f.keys = append(f.keys, r.URL.Query().Get("app_key"))
}

func (f *fakeUpstream) requested(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.paths {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

var fixtureLines = []transit.LineStatus{
	{ID: "victoria", Name: "Victoria", ModeName: "tube", LineStatuses: []transit.StatusEntry{{StatusSeverity: 10, StatusSeverityDescription: "Good Service"}}},
	{ID: "central", Name: "Central", ModeName: "tube", LineStatuses: []transit.StatusEntry{{StatusSeverity: 9, StatusSeverityDescription: "Minor Delays", Reason: "Signal failure at Leyton."}}},
}

var fixtureJourney = transit.JourneyResult{Journeys: []transit.Journey{{
	StartDateTime:   "2026-04-02T09:05:00",
	ArrivalDateTime: "2026-04-02T09:21:00",
	Duration:        16,
	Legs: []transit.Leg{
		{
			Duration:       4,
			Mode:           transit.Identifier{ID: "walking", Name: "walking"},
			Instruction:    transit.Instruction{Summary: "Walk to Waterloo"},
			DeparturePoint: transit.Point{CommonName: "Start"},
			ArrivalPoint:   transit.Point{NaptanID: "940GZZLUWLO", CommonName: "Waterloo"},
		},
		{
			Duration:       12,
			Mode:           transit.Identifier{ID: "tube", Name: "tube"},
			Instruction:    transit.Instruction{Summary: "Northern line to Euston"},
			DeparturePoint: transit.Point{NaptanID: "940GZZLUWLO", CommonName: "Waterloo"},
			ArrivalPoint:   transit.Point{NaptanID: "940GZZLUEUS", CommonName: "Euston"},
			RouteOptions:   []transit.RouteOption{{Name: "Northern", LineIdentifier: &transit.Identifier{ID: "northern", Name: "Northern"}}},
		},
	},
}}}

var fixtureArrivals = []transit.Arrival{
	{ID: "a2", NaptanID: "940GZZLUWLO", StationName: "Waterloo Underground Station", LineID: "northern", LineName: "Northern", DestinationName: "Edgware", PlatformName: "Northbound - Platform 1", TimeToStation: 300},
	{ID: "a1", NaptanID: "940GZZLUWLO", StationName: "Waterloo Underground Station", LineID: "northern", LineName: "Northern", DestinationName: "High Barnet", PlatformName: "Northbound - Platform 1", TimeToStation: 45},
	{ID: "a3", NaptanID: "940GZZLUWLO", StationName: "Waterloo Underground Station", LineID: "jubilee", LineName: "Jubilee", DestinationName: "Stanmore", PlatformName: "Northbound - Platform 3", TimeToStation: 120},
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	path := r.URL.Path

	var body any
	switch {
	case strings.HasPrefix(path, "/Line/Mode/") && strings.HasSuffix(path, "/Status"):
		body = fixtureLines
	case strings.HasPrefix(path, "/Journey/JourneyResults/"):
		body = fixtureJourney
	case strings.HasPrefix(path, "/StopPoint/Search/"):
		body = transit.StopSearchResult{Matches: []transit.StopMatch{
			{ID: "940GZZLUWLO", Name: "Waterloo Underground Station", Lat: 51.5031, Lon: -0.1132, Modes: []string{"tube"}},
			{ID: "HUBWAT", Name: "Waterloo", Lat: 51.5036, Lon: -0.1143},
		}}
	case strings.HasPrefix(path, "/StopPoint/") && strings.HasSuffix(path, "/Arrivals"):
		body = fixtureArrivals
	case strings.HasPrefix(path, "/Line/") && strings.Contains(path, "/Arrivals"):
		body = fixtureArrivals
	case path == "/StopPoint":
		body = transit.NearbyResult{StopPoints: []transit.StopPoint{{NaptanID: "940GZZLUWLO", CommonName: "Waterloo", Distance: 120}}}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// newUpstream starts a fake transit API and returns it with its URL.
func newUpstream(t *testing.T) (*fakeUpstream, string) {
	t.Helper()
	f := &fakeUpstream{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

// writeConfig writes a config pointing at baseURL with the memory store.
func writeConfig(t *testing.T, baseURL, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "railwise.yaml")
	body := "transit:\n" +
		"  base_url: " + baseURL + "\n" +
		"  keys: [transit-live-key]\n" +
		"  autofetch_keys: [transit-auto-key]\n" +
		"storage:\n" +
		"  backend: memory\n" +
		"geocode:\n" +
		"  base_url: " + baseURL + "\n" +
		extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}
