// Package pictures manages the ordered photo list attached to a record: the
// attachment cap, fresh picture ids, and per-picture captions.
package pictures

import (
	"slices"

	"travelbook/internal/ident"
	"travelbook/pkg/domain"
)

// Manager applies picture-list edits. Every method returns a new slice and
// leaves its input untouched.
type Manager struct {
	ids ident.Generator
}

// NewManager returns a Manager drawing picture ids from ids.
func NewManager(ids ident.Generator) *Manager {
	if ids == nil {
		ids = ident.UUID{}
	}
	return &Manager{ids: ids}
}

// Attach appends a picture for every picked source. Each gets a fresh id, even
// when the same source is picked twice. When the combined list exceeds
// domain.MaxPictures it is cut to the first MaxPictures (existing first, then
// picked in order) and truncated is true.
func (m *Manager) Attach(existing []domain.Picture, picked []string) (result []domain.Picture, truncated bool) {
	result = make([]domain.Picture, 0, min(len(existing)+len(picked), domain.MaxPictures))
	for _, p := range existing {
		if len(result) == domain.MaxPictures {
			return result, true
		}
		result = append(result, p)
	}
	for _, ref := range picked {
		if len(result) == domain.MaxPictures {
			return result, true
		}
		result = append(result, domain.Picture{ID: m.ids.NewID(), SourceRef: ref})
	}
	return result, false
}

// SetCaption replaces the caption of the picture with pictureID.
func (m *Manager) SetCaption(pics []domain.Picture, pictureID, text string) ([]domain.Picture, error) {
	idx := domain.FindPicture(pics, pictureID)
	if idx < 0 {
		return pics, domain.ErrNotFound{Entity: domain.EntityPicture, ID: pictureID}
	}
	out := slices.Clone(pics)
	out[idx].Caption = text
	return out, nil
}

// Remove drops the picture with pictureID. Removing an absent picture is a no-op.
func (m *Manager) Remove(pics []domain.Picture, pictureID string) []domain.Picture {
	return slices.DeleteFunc(slices.Clone(pics), func(p domain.Picture) bool { return p.ID == pictureID })
}
