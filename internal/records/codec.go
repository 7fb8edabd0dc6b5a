package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"travelbook/pkg/domain"
)

// decode parses a persisted collection. Anything other than a JSON array of
// records that each satisfy the record invariants, with unique ids, is rejected.
func decode(raw []byte) ([]domain.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("collection is not a JSON array")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var recs []domain.Record
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after collection")
	}
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		recs[i] = recs[i].Normalize()
		if err := domain.ValidateRecord(recs[i]); err != nil {
			return nil, fmt.Errorf("record %d: %v", i, err)
		}
		if _, dup := seen[recs[i].ID]; dup {
			return nil, fmt.Errorf("duplicate record id %s", recs[i].ID)
		}
		seen[recs[i].ID] = struct{}{}
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}

func encode(recs []domain.Record) ([]byte, error) {
	if recs == nil {
		recs = []domain.Record{}
	}
	return json.Marshal(recs)
}
