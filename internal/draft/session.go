package draft

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"travelbook/internal/handoff"
	"travelbook/pkg/domain"
)

var (
	// ErrSessionClosed is returned by any operation on a committed or abandoned draft.
	ErrSessionClosed = errors.New("draft session closed")
	// ErrUnknownField is returned by SetField for a field it cannot set.
	ErrUnknownField = errors.New("unknown draft field")
	// ErrFieldType is returned by SetField when the value has the wrong type.
	ErrFieldType = errors.New("draft field type mismatch")
)

// State is the lifecycle position of a draft.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateCommitted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateCommitted:
		return "committed"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateCommitted || s == StateAbandoned }

// Session is one draft. All methods are safe for concurrent use.
type Session struct {
	id       string
	m        *Manager
	mu       sync.Mutex
	state    State
	recordID string // set for edits, minted on first commit attempt otherwise
	draft    domain.Candidate
	expected handoff.Token
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RecordID returns the id the draft will be committed under; empty for a
// new draft that has not attempted a commit.
func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// Draft returns a copy of the current field values.
func (s *Session) Draft() domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	d.Pictures = slices.Clone(s.draft.Pictures)
	if d.Location != nil {
		loc := *d.Location
		d.Location = &loc
	}
	if d.MarkedPlace != nil {
		mark := *d.MarkedPlace
		d.MarkedPlace = &mark
	}
	return d
}

// ExpectedToken returns the outstanding pick token, or zero.
func (s *Session) ExpectedToken() handoff.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expected
}

func (s *Session) mutate(fn func(d *domain.Candidate) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return ErrSessionClosed
	}
	if err := fn(&s.draft); err != nil {
		return err
	}
	if s.state == StateEmpty {
		s.state = StateEditing
	}
	return nil
}

func (s *Session) SetTitle(v string) error {
	return s.mutate(func(d *domain.Candidate) error { d.Title = v; return nil })
}

func (s *Session) SetDescription(v string) error {
	return s.mutate(func(d *domain.Candidate) error { d.Description = v; return nil })
}

func (s *Session) SetTravelStart(v time.Time) error {
	return s.mutate(func(d *domain.Candidate) error { d.TravelStart = v; return nil })
}

func (s *Session) SetTravelEnd(v time.Time) error {
	return s.mutate(func(d *domain.Candidate) error { d.TravelEnd = v; return nil })
}

// AttachPictures appends new pictures for the picked source refs, capped at
// domain.MaxPictures. truncated reports that some were dropped.
func (s *Session) AttachPictures(refs []string) (truncated bool, err error) {
	err = s.mutate(func(d *domain.Candidate) error {
		d.Pictures, truncated = s.m.pics.Attach(d.Pictures, refs)
		return nil
	})
	return truncated, err
}

// SetPictureCaption fails with domain.ErrNotFound when the picture is gone.
func (s *Session) SetPictureCaption(pictureID, text string) error {
	return s.mutate(func(d *domain.Candidate) error {
		pics, err := s.m.pics.SetCaption(d.Pictures, pictureID, text)
		if err != nil {
			return err
		}
		d.Pictures = pics
		return nil
	})
}

// RemovePicture is a no-op when the picture is already gone.
func (s *Session) RemovePicture(pictureID string) error {
	return s.mutate(func(d *domain.Candidate) error {
		d.Pictures = s.m.pics.Remove(d.Pictures, pictureID)
		return nil
	})
}

// SetField sets one field by its persisted name. Dates accept time.Time or
// an RFC 3339 string.
func (s *Session) SetField(field string, value any) error {
	return s.mutate(func(d *domain.Candidate) error {
		switch field {
		case "travelTitle", "description":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %s wants string, got %T", ErrFieldType, field, value)
			}
			if field == "travelTitle" {
				d.Title = v
			} else {
				d.Description = v
			}
		case "travelStart", "travelEnd":
			t, err := asTime(field, value)
			if err != nil {
				return err
			}
			if field == "travelStart" {
				d.TravelStart = t
			} else {
				d.TravelEnd = t
			}
		case "location":
			v, ok := value.(domain.Region)
			if !ok {
				return fmt.Errorf("%w: location wants domain.Region, got %T", ErrFieldType, value)
			}
			d.Location = &v
		case "markedPlace":
			v, ok := value.(domain.Coordinate)
			if !ok {
				return fmt.Errorf("%w: markedPlace wants domain.Coordinate, got %T", ErrFieldType, value)
			}
			d.MarkedPlace = &v
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		return nil
	})
}

func asTime(field string, value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrFieldType, field, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s wants time.Time, got %T", ErrFieldType, field, value)
	}
}

// RequestLocationPick issues a new hand-off token for this draft. Any earlier
// outstanding pick, from this or any other session, is invalidated.
func (s *Session) RequestLocationPick() (handoff.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return handoff.Request{}, ErrSessionClosed
	}
	s.expected = s.m.broker.Issue(s.id)
	req := handoff.Request{Token: s.expected, SessionID: s.id}
	if s.draft.Location != nil {
		loc := *s.draft.Location
		req.Location = &loc
	}
	if s.draft.MarkedPlace != nil {
		mark := *s.draft.MarkedPlace
		req.Marker = &mark
	}
	return req, nil
}

// ResumeWithLocation merges a confirmed pick. It applies only when token is
// both this draft's expected token and the broker's outstanding one;
// anything else is discarded and reported as false.
func (s *Session) ResumeWithLocation(token handoff.Token, layout domain.Region, marker domain.Coordinate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() || s.expected == 0 || token != s.expected {
		return false
	}
	if _, ok := s.m.broker.Claim(token); !ok {
		s.expected = 0
		return false
	}
	s.expected = 0
	s.draft.Location = &layout
	s.draft.MarkedPlace = &marker
	if s.state == StateEmpty {
		s.state = StateEditing
	}
	return true
}

// Commit validates the draft and upserts it. Validation failures and storage
// failures leave the draft open with its data intact; the record id is kept
// across attempts so a retry replaces rather than duplicates.
func (s *Session) Commit(ctx context.Context) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return domain.Record{}, ErrSessionClosed
	}
	if err := s.draft.Validate(); err != nil {
		s.markEditing()
		return domain.Record{}, err
	}
	if s.recordID == "" {
		s.recordID = s.m.ids.NewID()
	}
	rec := domain.Record{
		ID:          s.recordID,
		Title:       s.draft.Title,
		Description: s.draft.Description,
		TravelStart: s.draft.TravelStart,
		TravelEnd:   s.draft.TravelEnd,
		Location:    *s.draft.Location,
		MarkedPlace: *s.draft.MarkedPlace,
		Pictures:    slices.Clone(s.draft.Pictures),
	}.Normalize()
	if err := s.m.store.Upsert(ctx, rec); err != nil {
		s.m.logger.WarnContext(ctx, "draft commit failed", "session", s.id, "record", rec.ID, "error", err)
		s.markEditing()
		return domain.Record{}, err
	}
	s.state = StateCommitted
	s.release()
	s.m.logger.InfoContext(ctx, "draft committed", "session", s.id, "record", rec.ID, "pictures", len(rec.Pictures))
	return rec, nil
}

// Abandon discards the draft and withdraws any outstanding pick.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = StateAbandoned
	s.release()
	s.m.logger.Debug("draft abandoned", "session", s.id)
}

// markEditing records that a commit was attempted. Callers hold s.mu.
func (s *Session) markEditing() {
	if s.state == StateEmpty {
		s.state = StateEditing
	}
}

func (s *Session) release() {
	if s.expected != 0 {
		s.m.broker.Cancel(s.expected)
		s.expected = 0
	}
	s.m.forget(s.id)
}
