// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import "time"

// GoodServiceSeverity is the status severity the upstream uses for a line
// running normally.
const GoodServiceSeverity = 10

// LineStatus is one line with its current status entries.
type LineStatus struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ModeName      string         `json:"modeName"`
	LineStatuses  []StatusEntry  `json:"lineStatuses"`
	Disruptions   []Disruption   `json:"disruptions,omitempty"`
	RouteSections []RouteSection `json:"routeSections,omitempty"`
}

// StatusEntry is a single severity reading for a line. Severity runs 0-20;
// lower is usually worse, except GoodServiceSeverity.
type StatusEntry struct {
	StatusSeverity            int              `json:"statusSeverity"`
	StatusSeverityDescription string           `json:"statusSeverityDescription"`
	Reason                    string           `json:"reason,omitempty"`
	Disruption                *Disruption      `json:"disruption,omitempty"`
	ValidityPeriods           []ValidityPeriod `json:"validityPeriods,omitempty"`
}

// ValidityPeriod bounds when a status entry applies.
type ValidityPeriod struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	IsNow    bool   `json:"isNow"`
}

// Disruption describes an incident affecting one or more lines.
type Disruption struct {
	Category            string `json:"category,omitempty"`
	Type                string `json:"type,omitempty"`
	CategoryDescription string `json:"categoryDescription,omitempty"`
	Description         string `json:"description,omitempty"`
	Summary             string `json:"summary,omitempty"`
	AdditionalInfo      string `json:"additionalInfo,omitempty"`
	ClosureText         string `json:"closureText,omitempty"`
	Created             string `json:"created,omitempty"`
	LastUpdate          string `json:"lastUpdate,omitempty"`
}

// RouteSection names a stretch of a line.
type RouteSection struct {
	Name            string `json:"name"`
	Direction       string `json:"direction"`
	OriginationName string `json:"originationName"`
	DestinationName string `json:"destinationName"`
}

// Identifier is the upstream's generic {id, name} reference.
type Identifier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// StopMatch is a stop search result.
type StopMatch struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Lat             float64  `json:"lat"`
	Lon             float64  `json:"lon"`
	Modes           []string `json:"modes,omitempty"`
	Zone            string   `json:"zone,omitempty"`
	IcsID           string   `json:"icsId,omitempty"`
	TopMostParentID string   `json:"topMostParentId,omitempty"`
}

// Coordinates implements Locatable.
func (s StopMatch) Coordinates() (float64, float64, bool) {
	return s.Lat, s.Lon, s.Lat != 0 || s.Lon != 0
}

// StopID implements Locatable.
func (s StopMatch) StopID() string { return s.ID }

// StopSearchResult is the stop search response.
type StopSearchResult struct {
	Query   string      `json:"query"`
	Total   int         `json:"total"`
	Matches []StopMatch `json:"matches"`
}

// StopPoint is a full stop record as returned by the nearby endpoint.
type StopPoint struct {
	NaptanID   string       `json:"naptanId"`
	ID         string       `json:"id,omitempty"`
	CommonName string       `json:"commonName"`
	StopType   string       `json:"stopType,omitempty"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	Distance   float64      `json:"distance,omitempty"`
	Modes      []string     `json:"modes,omitempty"`
	Lines      []Identifier `json:"lines,omitempty"`
}

// Coordinates implements Locatable.
func (s StopPoint) Coordinates() (float64, float64, bool) {
	return s.Lat, s.Lon, s.Lat != 0 || s.Lon != 0
}

// StopID implements Locatable.
func (s StopPoint) StopID() string {
	if s.NaptanID != "" {
		return s.NaptanID
	}
	return s.ID
}

// NearbyResult is the nearby-stops response.
type NearbyResult struct {
	CentrePoint []float64   `json:"centrePoint,omitempty"`
	StopPoints  []StopPoint `json:"stopPoints"`
	Total       int         `json:"total"`
}

// Arrival is a single live prediction.
type Arrival struct {
	ID              string    `json:"id"`
	NaptanID        string    `json:"naptanId"`
	StationName     string    `json:"stationName"`
	LineID          string    `json:"lineId"`
	LineName        string    `json:"lineName"`
	PlatformName    string    `json:"platformName"`
	Direction       string    `json:"direction,omitempty"`
	DestinationName string    `json:"destinationName"`
	Towards         string    `json:"towards,omitempty"`
	TimeToStation   int       `json:"timeToStation"`
	ExpectedArrival time.Time `json:"expectedArrival"`
	ModeName        string    `json:"modeName"`
}

// JourneyResult is the raw multi-journey planner response.
type JourneyResult struct {
	Journeys []Journey    `json:"journeys"`
	Lines    []LineStatus `json:"lines,omitempty"`
}

// Journey is one end-to-end itinerary.
type Journey struct {
	StartDateTime   string `json:"startDateTime"`
	ArrivalDateTime string `json:"arrivalDateTime"`
	Duration        int    `json:"duration"`
	Legs            []Leg  `json:"legs"`
	Fare            *Fare  `json:"fare,omitempty"`
}

// Fare is the journey's total fare in pence.
type Fare struct {
	TotalCost int `json:"totalCost"`
}

// Leg is one segment of a journey.
type Leg struct {
	Duration       int           `json:"duration"`
	Instruction    Instruction   `json:"instruction"`
	DepartureTime  string        `json:"departureTime"`
	ArrivalTime    string        `json:"arrivalTime"`
	DeparturePoint Point         `json:"departurePoint"`
	ArrivalPoint   Point         `json:"arrivalPoint"`
	Mode           Identifier    `json:"mode"`
	RouteOptions   []RouteOption `json:"routeOptions,omitempty"`
	IsDisrupted    bool          `json:"isDisrupted"`
	Disruptions    []Disruption  `json:"disruptions,omitempty"`
}

// Instruction is the human-readable guidance for a leg.
type Instruction struct {
	Summary  string `json:"summary"`
	Detailed string `json:"detailed"`
}

// Point is a leg endpoint.
type Point struct {
	NaptanID   string  `json:"naptanId,omitempty"`
	CommonName string  `json:"commonName"`
	IcsCode    string  `json:"icsCode,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// RouteOption names a line that serves a leg.
type RouteOption struct {
	Name           string      `json:"name"`
	Directions     []string    `json:"directions,omitempty"`
	LineIdentifier *Identifier `json:"lineIdentifier,omitempty"`
}

// Place is a named point of interest.
type Place struct {
	ID         string  `json:"id"`
	URL        string  `json:"url,omitempty"`
	CommonName string  `json:"commonName"`
	PlaceType  string  `json:"placeType"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Coordinates implements Locatable.
func (p Place) Coordinates() (float64, float64, bool) {
	return p.Lat, p.Lon, p.Lat != 0 || p.Lon != 0
}

// StopID implements Locatable.
func (p Place) StopID() string { return p.ID }

// RouteSequence is the ordered stop list of a line in one direction.
type RouteSequence struct {
	LineID             string             `json:"lineId"`
	LineName           string             `json:"lineName"`
	Direction          string             `json:"direction"`
	IsOutboundOnly     bool               `json:"isOutboundOnly"`
	Mode               string             `json:"mode"`
	StopPointSequences []StopSequence     `json:"stopPointSequences"`
	OrderedLineRoutes  []OrderedLineRoute `json:"orderedLineRoutes"`
}

// StopSequence is one branch of a route sequence.
type StopSequence struct {
	Direction string      `json:"direction"`
	BranchID  int         `json:"branchId"`
	StopPoint []StopMatch `json:"stopPoint"`
}

// OrderedLineRoute is a named service pattern of a line.
type OrderedLineRoute struct {
	Name        string   `json:"name"`
	NaptanIDs   []string `json:"naptanIds"`
	ServiceType string   `json:"serviceType"`
}
