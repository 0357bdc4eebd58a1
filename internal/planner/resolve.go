// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package planner

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// Endpoint sources.
const (
	SourceCoordinates = "coordinates"
	SourceGeocode     = "geocode"
	SourceStopSearch  = "stop-search"
)

// Endpoint is a resolved origin or destination.
type Endpoint struct {
	Query  string
	Name   string
	Lat    float64
	Lon    float64
	StopID string
	Source string
	// Param is the value sent to the journey planner.
	Param string
}

// resolve turns a place phrase into an endpoint: literal "lat,lon" first,
// then the geocoder, then the transit stop search.
func (p *Planner) resolve(ctx context.Context, query string, modes []string) (Endpoint, error) {
	query = strings.TrimSpace(query)
	ep := Endpoint{Query: query}

	if lat, lon, ok := ParseLatLon(query); ok {
		ep.Name, ep.Lat, ep.Lon, ep.Source = query, lat, lon, SourceCoordinates
		ep.Param = transit.FormatStopPointForJourney(locatable{lat: lat, lon: lon})
		return ep, nil
	}

	if p.places != nil {
		places, err := p.places.Search(ctx, query)
		switch {
		case err != nil:
			slog.Warn("geocoding failed, falling back to stop search", "query", query, "error", err)
		case len(places) > 0:
			best := places[0]
			ep.Name, ep.Lat, ep.Lon, ep.Source = best.Name, best.Lat, best.Lon, SourceGeocode
			ep.Param = transit.FormatStopPointForJourney(best)
			return ep, nil
		}
	}

	stops, err := p.transit.SearchStopPoints(ctx, query, modes)
	if err != nil {
		return ep, rwerr.Wrap(err, rwerr.CodePlannerUpstreamFailure, "searching stops",
			rwerr.Field("query", query))
	}
	if len(stops) == 0 {
		return ep, rwerr.New(rwerr.CodePlannerLocationNotFound, "no place or stop matches "+strconv.Quote(query),
			rwerr.Field("query", query))
	}

	best := stops[0]
	ep.Name, ep.Lat, ep.Lon, ep.StopID, ep.Source = best.Name, best.Lat, best.Lon, best.ID, SourceStopSearch
	ep.Param = transit.FormatStopPointForJourney(best)
	return ep, nil
}

// locatable adapts bare coordinates to transit.Locatable.
type locatable struct{ lat, lon float64 }

func (l locatable) Coordinates() (float64, float64, bool) { return l.lat, l.lon, true }
func (l locatable) StopID() string                        { return "" }

// ParseLatLon accepts "lat,lon" with optional spaces and range checks.
func ParseLatLon(s string) (float64, float64, bool) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}
