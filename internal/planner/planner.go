// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package planner answers journey requests end to end: it reads the intent,
// resolves both endpoints, plans with the transit client, and ranks and
// enriches the options with live departures and cached line status.
package planner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/railwise/railwise/internal/geocode"
	"github.com/railwise/railwise/internal/intent"
	"github.com/railwise/railwise/internal/snapshot"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// DefaultDeparturesPerOption caps live departures attached to each option.
const DefaultDeparturesPerOption = 3

// stepFreePreferences are sent when the traveller needs step-free access.
var stepFreePreferences = []string{"NoSolidStairs", "NoEscalators", "StepFreeToVehicle", "StepFreeToPlatform"}

// IntentParser reads free text. *intent.Parser satisfies it.
type IntentParser interface {
	Parse(ctx context.Context, text string) intent.Intent
}

// PlaceSearcher resolves place names. *geocode.Geocoder satisfies it.
type PlaceSearcher interface {
	Search(ctx context.Context, text string) ([]geocode.Place, error)
}

// TransitAPI is the subset of *transit.Client the planner calls.
type TransitAPI interface {
	SearchStopPoints(ctx context.Context, query string, modes []string) ([]transit.StopMatch, error)
	PlanJourney(ctx context.Context, from, to string, prefs transit.JourneyPreferences) (*transit.JourneyResult, error)
	MultipleArrivals(ctx context.Context, stopIDs []string) ([]transit.Arrival, error)
}

// StatusSource serves line status. *snapshot.Cache satisfies it.
type StatusSource interface {
	LineStatus(ctx context.Context, maxAge time.Duration) (*snapshot.Result, error)
}

// Request is a journey question, either as free text or explicit endpoints.
// Explicit fields override what is read from Text.
type Request struct {
	Text       string
	From       string
	To         string
	Accessible bool
	Modes      []string
	When       time.Time
	TimeIs     string
}

// Plan is the planner's answer.
type Plan struct {
	Intent     intent.Intent
	From       Endpoint
	To         Endpoint
	Accessible bool
	Modes      []string
	Options    []Option

	// StatusOrigin is empty when no line status could be read.
	StatusOrigin snapshot.Origin
	StatusAt     time.Time
}

// Option is one ranked journey.
type Option struct {
	Journey        transit.Journey
	Duration       int
	Transfers      int
	Lines          []string
	DisruptedLines []string
	LineStatus     []transit.LineStatus
	Departures     []transit.Arrival
	Accessibility  string
}

// Planner wires the collaborators together. Only the transit client is
// required.
type Planner struct {
	transit       TransitAPI
	intents       IntentParser
	places        PlaceSearcher
	status        StatusSource
	statusMaxAge  time.Duration
	departuresCap int
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithIntentParser sets the free-text reader. Without one, the heuristic
// reader is used.
func WithIntentParser(p IntentParser) PlannerOption {
	return func(pl *Planner) { pl.intents = p }
}

// WithPlaceSearcher enables geocoding of endpoints.
func WithPlaceSearcher(s PlaceSearcher) PlannerOption {
	return func(pl *Planner) { pl.places = s }
}

// WithStatusSource enables line-status enrichment.
func WithStatusSource(s StatusSource, maxAge time.Duration) PlannerOption {
	return func(pl *Planner) {
		pl.status = s
		pl.statusMaxAge = maxAge
	}
}

// WithDeparturesPerOption caps attached departures. Zero disables them.
func WithDeparturesPerOption(n int) PlannerOption {
	return func(pl *Planner) { pl.departuresCap = n }
}

// New creates a Planner over api.
func New(api TransitAPI, opts ...PlannerOption) *Planner {
	p := &Planner{
		transit:       api,
		statusMaxAge:  snapshot.DefaultMaxAge,
		departuresCap: DefaultDeparturesPerOption,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.intents == nil {
		p.intents = intent.NewParser(nil)
	}
	return p
}

// Plan answers req. Enrichment failures are logged and leave the affected
// fields empty; only input, endpoint, and journey-planning failures are
// returned as errors.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	plan, err := p.interpret(ctx, req)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ep, err := p.resolve(gctx, plan.Intent.From, plan.Modes)
		plan.From = ep
		return err
	})
	g.Go(func() error {
		ep, err := p.resolve(gctx, plan.Intent.To, plan.Modes)
		plan.To = ep
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prefs := transit.JourneyPreferences{
		Modes:  plan.Modes,
		When:   req.When,
		TimeIs: req.TimeIs,
	}
	if plan.Accessible {
		prefs.AccessibilityPreference = stepFreePreferences
	}

	result, err := p.transit.PlanJourney(ctx, plan.From.Param, plan.To.Param, prefs)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodePlannerUpstreamFailure, "planning journey",
			rwerr.Field("from", plan.From.Param),
			rwerr.Field("to", plan.To.Param))
	}
	if len(result.Journeys) == 0 {
		return plan, nil
	}

	var (
		statusByLine map[string]transit.LineStatus
		arrivals     []transit.Arrival
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		statusByLine = p.lineStatus(ectx, plan)
		return nil
	})
	eg.Go(func() error {
		arrivals = p.departures(ectx, result.Journeys)
		return nil
	})
	_ = eg.Wait()

	plan.Options = make([]Option, 0, len(result.Journeys))
	for _, j := range result.Journeys {
		plan.Options = append(plan.Options, buildOption(j, statusByLine, arrivals, plan.Accessible, p.departuresCap))
	}
	RankOptions(plan.Options)

	return plan, nil
}

// interpret merges the request's explicit fields with what its text says.
func (p *Planner) interpret(ctx context.Context, req Request) (*Plan, error) {
	text := strings.TrimSpace(req.Text)
	from := strings.TrimSpace(req.From)
	to := strings.TrimSpace(req.To)

	if text == "" && (from == "" || to == "") {
		return nil, rwerr.New(rwerr.CodePlannerInputInvalid, "either text or both from and to are required")
	}

	var in intent.Intent
	if text != "" && (from == "" || to == "") {
		in = p.intents.Parse(ctx, text)
	}
	if from != "" {
		in.From = from
	}
	if to != "" {
		in.To = to
	}
	if len(req.Modes) > 0 {
		in.Modes = req.Modes
	}
	in.Accessible = in.Accessible || req.Accessible

	if !in.HasEndpoints() {
		return nil, rwerr.New(rwerr.CodePlannerInputInvalid,
			"could not work out both origin and destination",
			rwerr.Field("from", in.From),
			rwerr.Field("to", in.To))
	}

	return &Plan{
		Intent:     in,
		Accessible: in.Accessible,
		Modes:      in.Modes,
	}, nil
}

func (p *Planner) lineStatus(ctx context.Context, plan *Plan) map[string]transit.LineStatus {
	if p.status == nil {
		return nil
	}
	res, err := p.status.LineStatus(ctx, p.statusMaxAge)
	if err != nil {
		slog.Warn("line status unavailable for journey enrichment", "error", err)
		return nil
	}
	plan.StatusOrigin = res.Origin
	plan.StatusAt = res.ValidAt

	out := make(map[string]transit.LineStatus, len(res.Lines))
	for _, l := range res.Lines {
		out[l.ID] = l
	}
	return out
}

// departures fetches arrivals for the first boarding stop of every journey
// in one batched call.
func (p *Planner) departures(ctx context.Context, journeys []transit.Journey) []transit.Arrival {
	if p.departuresCap <= 0 {
		return nil
	}
	var ids []string
	for _, j := range journeys {
		if leg, ok := firstBoardingLeg(j); ok {
			ids = append(ids, leg.DeparturePoint.NaptanID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	arrivals, err := p.transit.MultipleArrivals(ctx, ids)
	if err != nil {
		slog.Warn("departures unavailable for journey enrichment", "error", err)
		return nil
	}
	return arrivals
}
