// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/railwise/railwise/internal/keypool"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// DefaultArrivalConcurrency bounds parallel per-stop arrival fetches.
const DefaultArrivalConcurrency = 8

// Config holds transit client configuration.
type Config struct {
	BaseURL            string
	Keys               []string
	KeyParam           string
	UserAgent          string
	Timeout            time.Duration
	ArrivalConcurrency int
	HTTPClient         *http.Client
}

// Client exposes the upstream's journey, stop, arrival, and status endpoints.
// Each Client owns its own credential pool and rotation state.
type Client struct {
	exec               *Executor
	arrivalConcurrency int
}

// New creates a Client. poolOpts are passed to the credential pool (for
// example keypool.WithClock in tests).
func New(cfg Config, poolOpts ...keypool.Option) (*Client, error) {
	opts := []ExecutorOption{}
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.KeyParam != "" {
		opts = append(opts, WithKeyParam(cfg.KeyParam))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, WithUserAgent(cfg.UserAgent))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}

	exec, err := NewExecutor(cfg.BaseURL, keypool.New(cfg.Keys, poolOpts...), opts...)
	if err != nil {
		return nil, err
	}
	return NewWithExecutor(exec, cfg.ArrivalConcurrency), nil
}

// NewWithExecutor wraps an existing Executor.
func NewWithExecutor(exec *Executor, arrivalConcurrency int) *Client {
	if arrivalConcurrency <= 0 {
		arrivalConcurrency = DefaultArrivalConcurrency
	}
	return &Client{exec: exec, arrivalConcurrency: arrivalConcurrency}
}

// Pool returns the client's credential pool.
func (c *Client) Pool() *keypool.Pool {
	return c.exec.Pool()
}

// JourneyPreferences are the optional planner parameters.
type JourneyPreferences struct {
	Modes                   []string
	AccessibilityPreference []string // e.g. StepFreeToVehicle, StepFreeToPlatform, NoSolidStairs
	WalkingSpeed            string   // Slow, Average, Fast
	When                    time.Time
	TimeIs                  string // Departing or Arriving
	MaxWalkingMinutes       int
	Via                     string
}

func (p JourneyPreferences) query() Query {
	q := Query{
		"mode":                    p.Modes,
		"accessibilityPreference": p.AccessibilityPreference,
		"walkingSpeed":            p.WalkingSpeed,
		"timeIs":                  p.TimeIs,
		"via":                     p.Via,
	}
	if !p.When.IsZero() {
		q["date"] = p.When.Format("20060102")
		q["time"] = p.When.Format("1504")
	}
	if p.MaxWalkingMinutes > 0 {
		q["maxWalkingMinutes"] = p.MaxWalkingMinutes
	}
	return q
}

// PlanJourney requests itineraries between from and to. Both are embedded in
// the path; coordinates ("lat,lon") are the most portable form.
func (c *Client) PlanJourney(ctx context.Context, from, to string, prefs JourneyPreferences) (*JourneyResult, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "journey origin and destination are required")
	}
	var out JourneyResult
	req := Request{
		Path:  "/Journey/JourneyResults/" + pathSegment(from) + "/to/" + pathSegment(to),
		Query: prefs.query(),
	}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchStopPoints searches stops by name and returns them ranked by
// relevance to query.
func (c *Client) SearchStopPoints(ctx context.Context, query string, modes []string) ([]StopMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "stop search query is required")
	}
	var out StopSearchResult
	req := Request{
		Path:  "/StopPoint/Search/" + pathSegment(query),
		Query: Query{"modes": modes},
	}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return RankStopPoints(query, out.Matches), nil
}

// NearbyStopPoints lists stops within radius metres of a point.
func (c *Client) NearbyStopPoints(ctx context.Context, lat, lon float64, radius int, modes, categories []string) ([]StopPoint, error) {
	if radius <= 0 {
		radius = 500
	}
	var out NearbyResult
	req := Request{
		Path: "/StopPoint",
		Query: Query{
			"lat":        lat,
			"lon":        lon,
			"radius":     radius,
			"stopTypes":  "NaptanMetroStation,NaptanRailStation,NaptanPublicBusCoachTram,NaptanFerryPort",
			"modes":      modes,
			"categories": categories,
		},
	}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.StopPoints, nil
}

// Arrivals returns live predictions for a single stop.
func (c *Client) Arrivals(ctx context.Context, stopID string) ([]Arrival, error) {
	if strings.TrimSpace(stopID) == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "stop id is required")
	}
	var out []Arrival
	req := Request{Path: "/StopPoint/" + pathSegment(stopID) + "/Arrivals"}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MultipleArrivals fetches predictions for several stops. Ids are
// de-duplicated; a single id uses the single-stop path, otherwise one request
// per id runs in parallel. A failing id contributes zero arrivals instead of
// failing the batch. Results are flattened in input order.
func (c *Client) MultipleArrivals(ctx context.Context, stopIDs []string) ([]Arrival, error) {
	ids := dedupeIDs(stopIDs)
	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return c.Arrivals(ctx, ids[0])
	}

	results := make([][]Arrival, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.arrivalConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			arr, err := c.Arrivals(gctx, id)
			if err != nil {
				slog.Warn("arrivals fetch failed, treating as empty", "stop_id", id, "error", err)
				return nil
			}
			results[i] = arr
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeTransitTimeout, "fetching arrivals")
	}

	var out []Arrival
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// LineArrivals returns predictions for several lines, optionally at one stop.
func (c *Client) LineArrivals(ctx context.Context, lineIDs []string, stopID string) ([]Arrival, error) {
	seg := joinSegment(lineIDs)
	if seg == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "at least one line id is required")
	}
	path := "/Line/" + seg + "/Arrivals"
	if strings.TrimSpace(stopID) != "" {
		path += "/" + pathSegment(stopID)
	}
	var out []Arrival
	if err := c.exec.Execute(ctx, Request{Path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LineStatus returns status for every line of the given modes (or
// DefaultStatusModes) in one request. If the upstream rejects the mode list as
// malformed, each mode is retried on its own through its spelling variants;
// modes for which no variant works are logged and skipped. The original error
// is returned only if no mode succeeds.
func (c *Client) LineStatus(ctx context.Context, modes []string) ([]LineStatus, error) {
	if len(dedupeIDs(modes)) == 0 {
		modes = DefaultStatusModes
	}
	modes = dedupeIDs(modes)

	lines, err := c.lineStatusFor(ctx, modes)
	if err == nil {
		return lines, nil
	}
	if !isModeValidationError(err) {
		return nil, err
	}

	slog.Warn("bulk line status rejected, retrying per mode", "modes", strings.Join(modes, ","), "error", err)

	var (
		out    []LineStatus
		failed []string
		ok     int
	)
	for _, mode := range modes {
		found := false
		for _, variant := range ModeVariants(mode) {
			res, verr := c.lineStatusFor(ctx, []string{variant})
			if verr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, rwerr.Wrap(ctxErr, rwerr.CodeTransitTimeout, "fetching line status")
				}
				continue
			}
			out = append(out, res...)
			found = true
			break
		}
		if found {
			ok++
			continue
		}
		failed = append(failed, mode)
	}

	if len(failed) > 0 {
		slog.Warn("line status unavailable for modes", "modes", strings.Join(failed, ","))
	}
	if ok == 0 {
		return nil, err
	}
	return out, nil
}

func (c *Client) lineStatusFor(ctx context.Context, modes []string) ([]LineStatus, error) {
	var out []LineStatus
	req := Request{
		Path:  "/Line/Mode/" + joinSegment(modes) + "/Status",
		Query: Query{"detail": true},
	}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SpecificLineStatus returns status for the named lines.
func (c *Client) SpecificLineStatus(ctx context.Context, lineIDs []string) ([]LineStatus, error) {
	seg := joinSegment(lineIDs)
	if seg == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "at least one line id is required")
	}
	var out []LineStatus
	req := Request{Path: "/Line/" + seg + "/Status", Query: Query{"detail": true}}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Disruptions returns current disruptions for the given modes (or
// DefaultStatusModes).
func (c *Client) Disruptions(ctx context.Context, modes []string) ([]Disruption, error) {
	if len(dedupeIDs(modes)) == 0 {
		modes = DefaultStatusModes
	}
	var out []Disruption
	req := Request{Path: "/Line/Mode/" + joinSegment(modes) + "/Disruption"}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPlace finds places by name, optionally restricted to place types.
func (c *Client) SearchPlace(ctx context.Context, name string, types []string) ([]Place, error) {
	if strings.TrimSpace(name) == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "place name is required")
	}
	var out []Place
	req := Request{Path: "/Place/Search", Query: Query{"name": name, "types": types}}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Place returns the places matching id. The upstream answers with a list even
// for a single id.
func (c *Client) Place(ctx context.Context, id string) ([]Place, error) {
	if strings.TrimSpace(id) == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "place id is required")
	}
	var out []Place
	if err := c.exec.Execute(ctx, Request{Path: "/Place/" + pathSegment(id)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RouteSequence returns the ordered stops of a line in direction
// ("inbound", "outbound", or "all").
func (c *Client) RouteSequence(ctx context.Context, lineID, direction string) (*RouteSequence, error) {
	if strings.TrimSpace(lineID) == "" {
		return nil, rwerr.New(rwerr.CodeTransitRequestInvalid, "line id is required")
	}
	if direction == "" {
		direction = "all"
	}
	var out RouteSequence
	req := Request{
		Path:  "/Line/" + pathSegment(lineID) + "/Route/Sequence/" + pathSegment(direction),
		Query: Query{"excludeCrowding": true},
	}
	if err := c.exec.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsGoodService reports whether every status entry of line is good service.
// A line with no entries is vacuously good.
func IsGoodService(line LineStatus) bool {
	for _, s := range line.LineStatuses {
		if s.StatusSeverity != GoodServiceSeverity {
			return false
		}
	}
	return true
}

// Locatable is anything that can be an endpoint of a journey request.
type Locatable interface {
	Coordinates() (lat, lon float64, ok bool)
	StopID() string
}

// FormatStopPointForJourney renders a stop for the journey endpoint.
// Coordinates are preferred because the endpoint accepts them for every stop
// type; the id is used only when a stop has no position.
func FormatStopPointForJourney(stop Locatable) string {
	if lat, lon, ok := stop.Coordinates(); ok {
		return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	}
	return stop.StopID()
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
