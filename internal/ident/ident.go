// Package ident mints identifiers for records and pictures.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces identifiers that never repeat within a process.
type Generator interface {
	NewID() string
}

// UUID generates random (version 4) UUIDs, safe under rapid sequential calls.
type UUID struct{}

// NewID returns a fresh random UUID string.
func (UUID) NewID() string { return uuid.NewString() }

// Sequence is a deterministic generator for fixtures and tests: prefix plus an
// atomically increasing counter.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence returns a sequence generator using prefix.
func NewSequence(prefix string) *Sequence { return &Sequence{prefix: prefix} }

// NewID returns the next identifier in the sequence.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s%d", s.prefix, s.n.Add(1))
}

// Func adapts a plain function to Generator.
type Func func() string

// NewID calls f.
func (f Func) NewID() string { return f() }
