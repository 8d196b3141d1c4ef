package planner

import (
	"context"
	"errors"
)

// ErrNoPlan is returned by Session operations that need a generated plan.
var ErrNoPlan = errors.New("no itinerary has been generated yet")

// Session owns the original snapshot of one planning session and the working
// plan derived from it. Budget fits always start from the snapshot, never from
// the previous working plan. A Session is not safe for concurrent use.
type Session struct {
	builder  *Builder
	request  TripRequest
	original *GeneratedItinerary
	current  *GeneratedItinerary
	lastFit  *BudgetFitResult
}

// NewSession returns an empty session bound to builder.
func NewSession(builder *Builder) *Session {
	return &Session{builder: builder}
}

// Generate builds a fresh itinerary and replaces any previous snapshot
// wholesale. On error the previous state is left as it was.
func (s *Session) Generate(ctx context.Context, req TripRequest, catalog Catalog) (*GeneratedItinerary, error) {
	it, err := s.builder.Generate(ctx, req, catalog)
	if err != nil {
		return nil, err
	}
	s.request = req
	s.original = it.Clone()
	s.current = it.Clone()
	s.lastFit = nil
	return it, nil
}

// ApplyBudget fits the snapshot to target and makes the result the working plan.
func (s *Session) ApplyBudget(target float64) (*BudgetFitResult, error) {
	if s.original == nil {
		return nil, ErrNoPlan
	}
	res, err := ApplyBudget(s.original, target)
	if err != nil {
		return nil, err
	}
	s.current = res.Plan.Clone()
	s.lastFit = res
	return res, nil
}

// Reset discards any scaled state and returns a copy of the snapshot.
func (s *Session) Reset() (*GeneratedItinerary, error) {
	if s.original == nil {
		return nil, ErrNoPlan
	}
	s.current = s.original.Clone()
	s.lastFit = nil
	return s.original.Clone(), nil
}

// Original returns a copy of the snapshot, or nil before the first Generate.
func (s *Session) Original() *GeneratedItinerary {
	return s.original.Clone()
}

// Current returns a copy of the working plan, or nil before the first Generate.
func (s *Session) Current() *GeneratedItinerary {
	return s.current.Clone()
}

// LastFit returns the most recent budget fit since the last Generate or Reset.
func (s *Session) LastFit() *BudgetFitResult {
	return s.lastFit
}

// Request returns the request the snapshot was generated from.
func (s *Session) Request() TripRequest {
	return s.request
}
