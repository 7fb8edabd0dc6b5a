// Package domain defines the persisted travel-journal entities, their value
// types, and the invariants every stored record must satisfy.
package domain

import (
	"slices"
	"time"
)

// EntityType identifies the kind of entity referenced by an error or a log line.
type EntityType string

// Supported entity type identifiers.
const (
	// EntityRecord identifies a travel record.
	EntityRecord EntityType = "record"
	// EntityPicture identifies a picture attached to a record.
	EntityPicture EntityType = "picture"
)

// MaxPictures caps the number of pictures attached to a single record.
const MaxPictures = 15

// Picture references an image attached to exactly one record. The image itself
// lives outside the store; only its opaque reference is persisted.
type Picture struct {
	ID        string `json:"assetId"`
	SourceRef string `json:"uri"`
	Caption   string `json:"imageDescription"`
}

// Record is a persisted travel-journal entry.
type Record struct {
	ID          string     `json:"id"`
	Title       string     `json:"travelTitle"`
	Description string     `json:"description"`
	TravelStart time.Time  `json:"travelStart"`
	TravelEnd   time.Time  `json:"travelEnd"`
	Location    Region     `json:"location"`
	MarkedPlace Coordinate `json:"markedPlace"`
	Pictures    []Picture  `json:"pictures"`
}

// Clone returns a deep copy so callers never share the picture backing array.
func (r Record) Clone() Record {
	cp := r
	cp.Pictures = slices.Clone(r.Pictures)
	return cp
}

// Equal reports whether two records hold the same values. Dates compare by
// instant so a round trip through the wire format stays equal.
func (r Record) Equal(other Record) bool {
	return r.ID == other.ID &&
		r.Title == other.Title &&
		r.Description == other.Description &&
		r.TravelStart.Equal(other.TravelStart) &&
		r.TravelEnd.Equal(other.TravelEnd) &&
		r.Location == other.Location &&
		r.MarkedPlace == other.MarkedPlace &&
		slices.Equal(r.Pictures, other.Pictures)
}

// Normalize converts dates to UTC so persisted values do not depend on the
// zone of the machine that created them.
func (r Record) Normalize() Record {
	cp := r.Clone()
	cp.TravelStart = cp.TravelStart.UTC()
	cp.TravelEnd = cp.TravelEnd.UTC()
	if cp.Pictures == nil {
		cp.Pictures = []Picture{}
	}
	return cp
}

// FindPicture returns the index of the picture with the given id, or -1.
func FindPicture(pictures []Picture, id string) int {
	return slices.IndexFunc(pictures, func(p Picture) bool { return p.ID == id })
}
