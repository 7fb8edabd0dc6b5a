package domain

import (
	"fmt"
	"strings"
	"time"
)

// Candidate is the form-shaped view of a record that commit rules are applied
// to. Location and marker are pointers because an edit form can leave them unset.
type Candidate struct {
	Title       string
	Description string
	TravelStart time.Time
	TravelEnd   time.Time
	Location    *Region
	MarkedPlace *Coordinate
	Pictures    []Picture
}

// Validate applies the commit rules in order and reports the first failure.
// The marker must lie inside the viewport; a marker outside it counts as a
// missing location.
func (c Candidate) Validate() error {
	if len(c.Pictures) == 0 {
		return ValidationError{Kind: KindMissingPictures, Field: "pictures"}
	}
	if c.MarkedPlace == nil {
		return ValidationError{Kind: KindMissingLocation, Field: "markedPlace"}
	}
	if c.Location == nil {
		return ValidationError{Kind: KindMissingLocation, Field: "location"}
	}
	if !c.Location.Contains(*c.MarkedPlace) {
		return ValidationError{Kind: KindMissingLocation, Field: "markedPlace"}
	}
	if strings.TrimSpace(c.Description) == "" {
		return ValidationError{Kind: KindBlankText, Field: "description"}
	}
	if strings.TrimSpace(c.Title) == "" {
		return ValidationError{Kind: KindBlankText, Field: "travelTitle"}
	}
	if c.TravelEnd.Before(c.TravelStart) {
		return ValidationError{Kind: KindInvalidDates, Field: "travelEnd"}
	}
	return nil
}

// CandidateOf exposes a persisted record through the form view.
func CandidateOf(r Record) Candidate {
	loc, mark := r.Location, r.MarkedPlace
	return Candidate{
		Title:       r.Title,
		Description: r.Description,
		TravelStart: r.TravelStart,
		TravelEnd:   r.TravelEnd,
		Location:    &loc,
		MarkedPlace: &mark,
		Pictures:    r.Pictures,
	}
}

// ValidateRecord checks every invariant a stored record must hold: the commit
// rules plus identity, picture cap, picture id uniqueness and coordinate ranges.
func ValidateRecord(r Record) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: record id is empty", ErrValidation)
	}
	if err := CandidateOf(r).Validate(); err != nil {
		return err
	}
	if len(r.Pictures) > MaxPictures {
		return ValidationError{Kind: KindTooManyPictures, Field: "pictures"}
	}
	if !r.Location.Valid() {
		return ValidationError{Kind: KindMissingLocation, Field: "location"}
	}
	if !r.MarkedPlace.Valid() {
		return ValidationError{Kind: KindMissingLocation, Field: "markedPlace"}
	}
	seen := make(map[string]struct{}, len(r.Pictures))
	for _, p := range r.Pictures {
		if p.ID == "" {
			return fmt.Errorf("%w: record %s has a picture with empty id", ErrValidation, r.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: record %s has duplicate picture id %s", ErrValidation, r.ID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
