package core

import "fmt"

// Entity is a detected sensitive span: a typed substring of the source
// text with half-open [Start, End) offsets and a detector confidence.
//
// Entities are validated at construction and never modified afterwards.
// Always build them through NewEntity; the pipeline trusts that any
// Entity it receives already satisfies the invariants.
type Entity struct {
	Kind       Kind    `json:"kind"`
	Value      string  `json:"value"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// NewEntity constructs a validated Entity.
// Invariants: Start >= 0, End > Start, 0 <= Confidence <= 1, Value non-empty.
func NewEntity(kind Kind, value string, start, end int, confidence float64) (Entity, error) {
	if !kind.Valid() {
		return Entity{}, fmt.Errorf("entity kind: %q is not a valid kind", kind)
	}
	if start < 0 {
		return Entity{}, fmt.Errorf("entity start: must be non-negative, got %d", start)
	}
	if end <= start {
		return Entity{}, fmt.Errorf("entity span: end (%d) must be greater than start (%d)", end, start)
	}
	if confidence < 0 || confidence > 1 {
		return Entity{}, fmt.Errorf("entity confidence: must be within [0, 1], got %g", confidence)
	}
	if value == "" {
		return Entity{}, fmt.Errorf("entity value: must not be empty")
	}
	return Entity{
		Kind:       kind,
		Value:      value,
		Start:      start,
		End:        end,
		Confidence: confidence,
	}, nil
}

// MustEntity is NewEntity for static test fixtures; it panics on
// invalid input.
func MustEntity(kind Kind, value string, start, end int, confidence float64) Entity {
	e, err := NewEntity(kind, value, start, end, confidence)
	if err != nil {
		panic(err)
	}
	return e
}

// Len returns the span length in bytes.
func (e Entity) Len() int {
	return e.End - e.Start
}
