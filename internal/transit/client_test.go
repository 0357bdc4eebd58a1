// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathRecorder records request paths in arrival order.
type pathRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *pathRecorder) add(p string) {
	r.mu.Lock()
	r.paths = append(r.paths, p)
	r.mu.Unlock()
}

func (r *pathRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newClient(t *testing.T, h http.Handler, keys ...string) *transit.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := transit.New(transit.Config{BaseURL: srv.URL, Keys: keys, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ---------------------------------------------------------------------------
// LineStatus
// ---------------------------------------------------------------------------

func TestLineStatus_FallsBackPerModeOnValidationError(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		switch r.URL.Path {
		case "/Line/Mode/tube/Status":
			writeJSON(t, w, []transit.LineStatus{{ID: "victoria", Name: "Victoria", ModeName: "tube"}})
		case "/Line/Mode/riverbus/Status":
			writeJSON(t, w, []transit.LineStatus{{ID: "rb1", Name: "RB1", ModeName: "river-bus"}})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"message":"The following mode id is not recognised: river-bus"}`)
		}
	}))

	lines, err := c.LineStatus(context.Background(), []string{"tube", "river-bus"})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "victoria", lines[0].ID)
	assert.Equal(t, "rb1", lines[1].ID)

	assert.Equal(t, []string{
		"/Line/Mode/tube,river-bus/Status",
		"/Line/Mode/tube/Status",
		"/Line/Mode/river-bus/Status",
		"/Line/Mode/riverbus/Status",
	}, rec.all())
}

func TestLineStatus_SkipsModesWithNoWorkingVariant(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Line/Mode/dlr/Status" {
			writeJSON(t, w, []transit.LineStatus{{ID: "dlr", Name: "DLR"}})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"message":"The value does not match the expected pattern"}`)
	}))

	lines, err := c.LineStatus(context.Background(), []string{"dlr", "hovercraft"})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "dlr", lines[0].ID)
}

func TestLineStatus_ReturnsOriginalErrorWhenNoModeSucceeds(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, `{"message":"mode not recognised at %s"}`, r.URL.Path)
	}))

	_, err := c.LineStatus(context.Background(), []string{"zeppelin", "hovercraft"})
	require.Error(t, err)
	de, ok := transit.AsDispatchError(err)
	require.True(t, ok)
	assert.Contains(t, de.Message, "/Line/Mode/zeppelin,hovercraft/Status")
}

func TestLineStatus_OutageDoesNotTriggerFallback(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.LineStatus(context.Background(), []string{"tube", "dlr"})
	require.Error(t, err)
	assert.True(t, rwerr.IsUpstreamFailure(err))
	assert.Len(t, rec.all(), 1)
}

func TestLineStatus_DefaultModes(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("detail"))
		writeJSON(t, w, []transit.LineStatus{})
	}))

	_, err := c.LineStatus(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/Line/Mode/" + strings.Join(transit.DefaultStatusModes, ",") + "/Status"}, rec.all())
}

// ---------------------------------------------------------------------------
// Arrivals
// ---------------------------------------------------------------------------

func TestMultipleArrivals_ToleratesPerStopFailure(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		switch r.URL.Path {
		case "/StopPoint/A/Arrivals":
			writeJSON(t, w, []transit.Arrival{{ID: "a1", NaptanID: "A"}, {ID: "a2", NaptanID: "A"}})
		case "/StopPoint/C/Arrivals":
			writeJSON(t, w, []transit.Arrival{{ID: "c1", NaptanID: "C"}})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	arrivals, err := c.MultipleArrivals(context.Background(), []string{"A", "B", "A", "C"})
	require.NoError(t, err)

	ids := make([]string, 0, len(arrivals))
	for _, a := range arrivals {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a2", "c1"}, ids)
	assert.ElementsMatch(t, []string{"/StopPoint/A/Arrivals", "/StopPoint/B/Arrivals", "/StopPoint/C/Arrivals"}, rec.all())
}

func TestMultipleArrivals_SingleIDUsesSinglePathAndPropagatesError(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.MultipleArrivals(context.Background(), []string{"X", " X "})
	require.Error(t, err)
	assert.Equal(t, []string{"/StopPoint/X/Arrivals"}, rec.all())
}

func TestMultipleArrivals_Empty(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	}))
	arrivals, err := c.MultipleArrivals(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, arrivals)
}

func TestLineArrivals_Path(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		writeJSON(t, w, []transit.Arrival{})
	}))

	_, err := c.LineArrivals(context.Background(), []string{"victoria", "jubilee"}, "940GZZLUGPK")
	require.NoError(t, err)
	_, err = c.LineArrivals(context.Background(), []string{"dlr"}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"/Line/victoria,jubilee/Arrivals/940GZZLUGPK", "/Line/dlr/Arrivals"}, rec.all())

	_, err = c.LineArrivals(context.Background(), nil, "")
	assert.True(t, rwerr.IsInvalidInput(err))
}

// ---------------------------------------------------------------------------
// Journeys, stops, places
// ---------------------------------------------------------------------------

func TestPlanJourney_EncodesPathAndPreferences(t *testing.T) {
	var got *http.Request
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeJSON(t, w, transit.JourneyResult{Journeys: []transit.Journey{{Duration: 23}}})
	}))

	when := time.Date(2026, 4, 2, 9, 5, 0, 0, time.UTC)
	res, err := c.PlanJourney(context.Background(), "51.5031,-0.1132", "940GZZLUVIC", transit.JourneyPreferences{
		Modes:                   []string{"tube", "walking"},
		AccessibilityPreference: []string{"StepFreeToPlatform"},
		WalkingSpeed:            "Slow",
		When:                    when,
		TimeIs:                  "Departing",
		MaxWalkingMinutes:       10,
	})
	require.NoError(t, err)
	require.Len(t, res.Journeys, 1)
	assert.Equal(t, 23, res.Journeys[0].Duration)

	require.NotNil(t, got)
	assert.Equal(t, "/Journey/JourneyResults/51.5031,-0.1132/to/940GZZLUVIC", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "tube,walking", q.Get("mode"))
	assert.Equal(t, "StepFreeToPlatform", q.Get("accessibilityPreference"))
	assert.Equal(t, "Slow", q.Get("walkingSpeed"))
	assert.Equal(t, "20260402", q.Get("date"))
	assert.Equal(t, "0905", q.Get("time"))
	assert.Equal(t, "Departing", q.Get("timeIs"))
	assert.Equal(t, "10", q.Get("maxWalkingMinutes"))
	assert.False(t, q.Has("via"))
}

func TestPlanJourney_RequiresEndpoints(t *testing.T) {
	c := newClient(t, http.NotFoundHandler())
	_, err := c.PlanJourney(context.Background(), "", "x", transit.JourneyPreferences{})
	assert.True(t, rwerr.IsInvalidInput(err))
}

func TestSearchStopPoints_RanksResults(t *testing.T) {
	var path string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(t, w, transit.StopSearchResult{Matches: []transit.StopMatch{
			{ID: "1", Name: "King's Cross Road"},
			{ID: "2", Name: "Kings Cross St. Pancras Underground Station"},
			{ID: "3", Name: "King's Cross"},
		}})
	}))

	stops, err := c.SearchStopPoints(context.Background(), "kings cross", nil)
	require.NoError(t, err)
	assert.Equal(t, "/StopPoint/Search/kings cross", path)
	require.Len(t, stops, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{stops[0].ID, stops[1].ID, stops[2].ID})

	_, err = c.SearchStopPoints(context.Background(), "   ", nil)
	assert.True(t, rwerr.IsInvalidInput(err))
}

func TestNearbyStopPoints_Query(t *testing.T) {
	var got *http.Request
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeJSON(t, w, transit.NearbyResult{StopPoints: []transit.StopPoint{{NaptanID: "940GZZLUWLO", CommonName: "Waterloo"}}})
	}))

	stops, err := c.NearbyStopPoints(context.Background(), 51.5031, -0.1132, 0, []string{"tube"}, nil)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "940GZZLUWLO", stops[0].StopID())

	q := got.URL.Query()
	assert.Equal(t, "/StopPoint", got.URL.Path)
	assert.Equal(t, "51.5031", q.Get("lat"))
	assert.Equal(t, "-0.1132", q.Get("lon"))
	assert.Equal(t, "500", q.Get("radius"))
	assert.Equal(t, "tube", q.Get("modes"))
	assert.False(t, q.Has("categories"))
}

func TestPlaceAndRouteSequencePaths(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		switch {
		case strings.HasPrefix(r.URL.Path, "/Line/"):
			writeJSON(t, w, transit.RouteSequence{LineID: "northern", Direction: "all"})
		default:
			writeJSON(t, w, []transit.Place{{ID: "BikePoints_1", CommonName: "River Street"}})
		}
	}))

	places, err := c.SearchPlace(context.Background(), "river street", []string{"BikePoint"})
	require.NoError(t, err)
	require.Len(t, places, 1)

	_, err = c.Place(context.Background(), "BikePoints_1")
	require.NoError(t, err)

	seq, err := c.RouteSequence(context.Background(), "northern", "")
	require.NoError(t, err)
	assert.Equal(t, "northern", seq.LineID)

	assert.Equal(t, []string{"/Place/Search", "/Place/BikePoints_1", "/Line/northern/Route/Sequence/all"}, rec.all())
}

func TestDisruptionsAndSpecificLineStatus(t *testing.T) {
	rec := &pathRecorder{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/Disruption") {
			writeJSON(t, w, []transit.Disruption{{Category: "RealTime", Description: "Minor delays"}})
			return
		}
		writeJSON(t, w, []transit.LineStatus{{ID: "central"}, {ID: "jubilee"}})
	}))

	d, err := c.Disruptions(context.Background(), []string{"tube"})
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.Equal(t, "Minor delays", d[0].Description)

	lines, err := c.SpecificLineStatus(context.Background(), []string{"central", "jubilee"})
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	assert.Equal(t, []string{"/Line/Mode/tube/Disruption", "/Line/central,jubilee/Status"}, rec.all())
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestIsGoodService(t *testing.T) {
	good := transit.StatusEntry{StatusSeverity: transit.GoodServiceSeverity, StatusSeverityDescription: "Good Service"}
	minor := transit.StatusEntry{StatusSeverity: 9, StatusSeverityDescription: "Minor Delays"}

	assert.True(t, transit.IsGoodService(transit.LineStatus{}))
	assert.True(t, transit.IsGoodService(transit.LineStatus{LineStatuses: []transit.StatusEntry{good}}))
	assert.True(t, transit.IsGoodService(transit.LineStatus{LineStatuses: []transit.StatusEntry{good, good}}))
	assert.False(t, transit.IsGoodService(transit.LineStatus{LineStatuses: []transit.StatusEntry{good, minor}}))
	assert.False(t, transit.IsGoodService(transit.LineStatus{LineStatuses: []transit.StatusEntry{minor}}))
}

func TestFormatStopPointForJourney(t *testing.T) {
	assert.Equal(t, "51.513,-0.089",
		transit.FormatStopPointForJourney(transit.StopMatch{ID: "940GZZLUBNK", Lat: 51.513, Lon: -0.089}))
	assert.Equal(t, "940GZZLUBNK",
		transit.FormatStopPointForJourney(transit.StopMatch{ID: "940GZZLUBNK"}))
	assert.Equal(t, "940GZZLUWLO",
		transit.FormatStopPointForJourney(transit.StopPoint{NaptanID: "940GZZLUWLO", ID: "other"}))
	assert.Equal(t, "51.5,-0.12",
		transit.FormatStopPointForJourney(transit.Place{ID: "p", Lat: 51.5, Lon: -0.12}))
}

func TestModeVariants(t *testing.T) {
	tests := []struct {
		mode string
		want []string
	}{
		{mode: "tube", want: []string{"tube"}},
		{mode: "river-bus", want: []string{"river-bus", "riverbus"}},
		{mode: "Cable-Car", want: []string{"cable-car", "cablecar"}},
		{mode: "Elizabeth Line", want: []string{"elizabeth line", "elizabethline", "elizabeth-line", "elizabeth"}},
		{mode: "national-rail", want: []string{"national-rail", "nationalrail", "national rail"}},
		{mode: "  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, transit.ModeVariants(tt.mode))
		})
	}
}
