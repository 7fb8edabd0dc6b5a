// Package handoff threads a location pick from a draft session through the
// map picker and back. Tokens are monotonic and only the most recently issued
// one is honoured: last request wins.
package handoff

import (
	"sync"

	"travelbook/pkg/domain"
)

// Token identifies one pick request. Zero is never issued.
type Token uint64

// Request is what the picker receives: the token and the draft's current
// location and marker, either of which may be unset.
type Request struct {
	Token     Token
	SessionID string
	Location  *domain.Region
	Marker    *domain.Coordinate
}

// Result is what a confirmed pick delivers back.
type Result struct {
	Token  Token
	Layout domain.Region
	Marker domain.Coordinate
}

// Broker holds the single outstanding pick for the process. Issuing a new
// token invalidates any earlier one, whichever session asked for it.
type Broker struct {
	mu          sync.Mutex
	last        Token
	outstanding Token
	owner       string
}

// NewBroker returns a broker with no outstanding request.
func NewBroker() *Broker { return &Broker{} }

// Issue mints the next token on behalf of sessionID and makes it the only
// outstanding one.
func (b *Broker) Issue(sessionID string) Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last++
	b.outstanding = b.last
	b.owner = sessionID
	return b.outstanding
}

// Outstanding reports the live token and its owning session, if any.
func (b *Broker) Outstanding() (Token, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outstanding, b.owner, b.outstanding != 0
}

// Claim consumes t if it is still the outstanding token and reports the
// session it belongs to. A stale or already-claimed token yields ok=false.
func (b *Broker) Claim(t Token) (sessionID string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t == 0 || t != b.outstanding {
		return "", false
	}
	sessionID = b.owner
	b.outstanding, b.owner = 0, ""
	return sessionID, true
}

// Cancel withdraws t if it is still outstanding.
func (b *Broker) Cancel(t Token) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t == 0 || t != b.outstanding {
		return false
	}
	b.outstanding, b.owner = 0, ""
	return true
}
