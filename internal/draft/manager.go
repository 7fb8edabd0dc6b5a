// Package draft implements editable working copies of travel records. A
// Session collects edits without validating them, hands location picks off
// through a handoff.Broker and validates only when it is committed.
package draft

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"travelbook/internal/handoff"
	"travelbook/internal/ident"
	"travelbook/internal/pictures"
	"travelbook/pkg/domain"
)

// RecordStore is the part of the record store drafts load from and commit to.
type RecordStore interface {
	Get(ctx context.Context, id string) (domain.Record, error)
	Upsert(ctx context.Context, rec domain.Record) error
}

// Manager creates sessions and keeps the live ones addressable by id, so a
// screen that is torn down while the picker is open can re-attach later.
type Manager struct {
	store  RecordStore
	broker *handoff.Broker
	pics   *pictures.Manager
	ids    ident.Generator
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithBroker shares a hand-off broker; by default each manager owns one.
func WithBroker(b *handoff.Broker) Option {
	return func(m *Manager) {
		if b != nil {
			m.broker = b
		}
	}
}

// WithIDs sets the generator for session, record and picture ids.
func WithIDs(g ident.Generator) Option {
	return func(m *Manager) {
		if g != nil {
			m.ids = g
		}
	}
}

// WithClock sets the clock new drafts take their default dates from.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager returns a manager committing to store.
func NewManager(store RecordStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		broker:   handoff.NewBroker(),
		ids:      ident.UUID{},
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pics = pictures.NewManager(m.ids)
	return m
}

// Broker returns the hand-off broker sessions issue pick tokens from.
func (m *Manager) Broker() *handoff.Broker { return m.broker }

// StartNew opens an Empty draft for a new record. Travel dates default to now.
func (m *Manager) StartNew() *Session {
	today := m.now().UTC()
	s := m.newSession(StateEmpty, "", domain.Candidate{
		TravelStart: today,
		TravelEnd:   today,
		Pictures:    []domain.Picture{},
	})
	m.logger.Debug("draft started", "session", s.id)
	return s
}

// StartEdit opens a draft over a working copy of an existing record. It
// fails with domain.ErrNotFound when the record has been deleted.
func (m *Manager) StartEdit(ctx context.Context, recordID string) (*Session, error) {
	rec, err := m.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	rec = rec.Clone()
	s := m.newSession(StateEditing, rec.ID, domain.CandidateOf(rec))
	m.logger.Debug("draft opened for edit", "session", s.id, "record", rec.ID)
	return s, nil
}

// Session looks up a live session.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Live returns the number of sessions that are neither committed nor abandoned.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// DeliverPick routes a confirmed picker result to the session that issued
// its token. Stale results, and results for sessions that are gone, are
// dropped and reported as false.
func (m *Manager) DeliverPick(res handoff.Result) bool {
	tok, owner, ok := m.broker.Outstanding()
	if !ok || tok != res.Token {
		m.logger.Debug("stale location pick dropped", "token", res.Token)
		return false
	}
	s, ok := m.Session(owner)
	if !ok {
		m.broker.Cancel(tok)
		m.logger.Debug("location pick for closed session dropped", "token", res.Token, "session", owner)
		return false
	}
	return s.ResumeWithLocation(res.Token, res.Layout, res.Marker)
}

// CancelPick withdraws a pick the user backed out of. Nothing is delivered.
func (m *Manager) CancelPick(tok handoff.Token) bool {
	return m.broker.Cancel(tok)
}

func (m *Manager) newSession(state State, recordID string, d domain.Candidate) *Session {
	s := &Session{
		id:       m.ids.NewID(),
		m:        m,
		state:    state,
		recordID: recordID,
		draft:    d,
	}
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
