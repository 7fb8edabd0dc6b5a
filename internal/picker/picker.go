// Package picker models the map picker sub-flow: it starts from a hand-off
// request, lets the user drop a single marker and either confirms or cancels.
package picker

import (
	"errors"

	"travelbook/internal/handoff"
	"travelbook/pkg/domain"
)

// ErrNoMarker is returned by Confirm when no point has been chosen.
var ErrNoMarker = errors.New("picker: no marker selected")

// Flow is one picker screen instance. It is not safe for concurrent use.
type Flow struct {
	token  handoff.Token
	region domain.Region
	marker *domain.Coordinate
	moved  bool
}

// Start opens the picker on req. Without an initial location the viewport
// falls back to domain.DefaultRegion, or to a region around the marker.
func Start(req handoff.Request) *Flow {
	f := &Flow{token: req.Token, region: domain.DefaultRegion}
	if req.Marker != nil {
		m := *req.Marker
		f.marker = &m
		f.region = domain.RegionAround(m)
	}
	if req.Location != nil {
		f.region = *req.Location
	}
	return f
}

// Region is the viewport currently shown.
func (f *Flow) Region() domain.Region { return f.region }

// Marker is the chosen point, if any.
func (f *Flow) Marker() (domain.Coordinate, bool) {
	if f.marker == nil {
		return domain.Coordinate{}, false
	}
	return *f.marker, true
}

// Select drops the marker at c and recentres the viewport on it.
func (f *Flow) Select(c domain.Coordinate) error {
	if !c.Valid() {
		return domain.ValidationError{Kind: domain.KindMissingLocation, Field: "markedPlace"}
	}
	f.marker = &c
	f.region = domain.RegionAround(c)
	f.moved = true
	return nil
}

// Confirm produces the result to hand back to the draft. When the marker was
// never moved, the initial viewport is kept only if it still shows the marker.
func (f *Flow) Confirm() (handoff.Result, error) {
	if f.marker == nil {
		return handoff.Result{}, ErrNoMarker
	}
	layout := f.region
	if !f.moved && !layout.Contains(*f.marker) {
		layout = domain.RegionAround(*f.marker)
	}
	return handoff.Result{Token: f.token, Layout: layout, Marker: *f.marker}, nil
}

// Cancel closes the picker without a result. The caller drops the flow and
// delivers nothing to the draft.
func (f *Flow) Cancel() handoff.Token { return f.token }
