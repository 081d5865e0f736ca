package core

import (
	"encoding/json"
	"testing"
	"time"
)

func emailToken(index int, value string) Token {
	return Token{
		Original: value,
		Kind:     KindEmail,
		Index:    index,
		Entity:   MustEntity(KindEmail, value, 0, len(value), 0.95),
	}
}

func TestState_WithTokenIsImmutable(t *testing.T) {
	s1 := NewState()
	s2 := s1.WithToken(emailToken(1, "a@x.com"))

	if s1.Len() != 0 {
		t.Errorf("original state mutated: Len() = %d, want 0", s1.Len())
	}
	if s2.Len() != 1 {
		t.Errorf("derived state Len() = %d, want 1", s2.Len())
	}
	if _, ok := s2.Lookup("[EMAIL_1]"); !ok {
		t.Error("derived state should contain [EMAIL_1]")
	}
	if !s1.CreatedAt().Equal(s2.CreatedAt()) {
		t.Error("WithToken must preserve the creation timestamp")
	}
}

func TestState_MergeIsRightBiased(t *testing.T) {
	a := NewState().
		WithToken(emailToken(1, "a@x.com")).
		WithToken(emailToken(2, "b@x.com"))
	b := NewState().
		WithToken(emailToken(2, "override@x.com")).
		WithToken(emailToken(3, "c@x.com"))

	merged := a.Merge(b)

	if merged.Len() != 3 {
		t.Fatalf("merged Len() = %d, want 3", merged.Len())
	}
	// A label only in one operand survives unchanged.
	if tok, _ := merged.Lookup("[EMAIL_1]"); tok.Original != "a@x.com" {
		t.Errorf("[EMAIL_1] = %q, want a@x.com", tok.Original)
	}
	if tok, _ := merged.Lookup("[EMAIL_3]"); tok.Original != "c@x.com" {
		t.Errorf("[EMAIL_3] = %q, want c@x.com", tok.Original)
	}
	// A label in both takes the second operand's binding.
	if tok, _ := merged.Lookup("[EMAIL_2]"); tok.Original != "override@x.com" {
		t.Errorf("[EMAIL_2] = %q, want override@x.com (right-biased)", tok.Original)
	}
}

func TestState_MergeKeepsEarlierTimestamp(t *testing.T) {
	a := NewState()
	time.Sleep(5 * time.Millisecond)
	b := NewState()

	if got := a.Merge(b).CreatedAt(); !got.Equal(a.CreatedAt()) {
		t.Errorf("Merge CreatedAt = %v, want earlier %v", got, a.CreatedAt())
	}
	if got := b.Merge(a).CreatedAt(); !got.Equal(a.CreatedAt()) {
		t.Errorf("Merge CreatedAt = %v, want earlier %v", got, a.CreatedAt())
	}
}

func TestState_JSONRoundTrip(t *testing.T) {
	entity := MustEntity(KindPerson, "John Doe", 8, 16, 0.87)
	s := NewState().
		WithToken(Token{Original: "John Doe", Kind: KindPerson, Index: 1, Entity: entity}).
		WithToken(emailToken(1, "john@example.com")).
		WithMetadata("source", "unit-test")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored State
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.Len() != s.Len() {
		t.Fatalf("restored Len() = %d, want %d", restored.Len(), s.Len())
	}
	tok, ok := restored.Lookup("[PERSON_1]")
	if !ok {
		t.Fatal("restored state missing [PERSON_1]")
	}
	if tok.Original != "John Doe" || tok.Index != 1 || tok.Kind != KindPerson {
		t.Errorf("restored token = %+v", tok)
	}
	if tok.Entity != entity {
		t.Errorf("restored entity = %+v, want %+v", tok.Entity, entity)
	}
	if got := restored.Metadata()["source"]; got != "unit-test" {
		t.Errorf("restored metadata source = %v", got)
	}
	if !restored.CreatedAt().Equal(s.CreatedAt()) {
		t.Errorf("restored CreatedAt = %v, want %v", restored.CreatedAt(), s.CreatedAt())
	}

	// Marshal again: byte-for-byte stable output.
	data2, err := json.Marshal(restored)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(data) != string(data2) {
		t.Errorf("round-trip not exact:\n first = %s\nsecond = %s", data, data2)
	}
}

func TestState_UnmarshalRejectsCorruptSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "unknown kind",
			data: `{"tokens":{"[FOO_1]":{"original":"x","kind":"FOO","token_index":1,"entity":{"kind":"FOO","value":"x","start":0,"end":1,"confidence":0.5}}},"metadata":{},"created_at":"2025-01-02T03:04:05Z"}`,
		},
		{
			name: "invalid entity span",
			data: `{"tokens":{"[EMAIL_1]":{"original":"x","kind":"EMAIL","token_index":1,"entity":{"kind":"EMAIL","value":"x","start":5,"end":2,"confidence":0.5}}},"metadata":{},"created_at":"2025-01-02T03:04:05Z"}`,
		},
		{
			name: "bad timestamp",
			data: `{"tokens":{},"metadata":{},"created_at":"yesterday"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			if err := json.Unmarshal([]byte(tt.data), &s); err == nil {
				t.Error("expected unmarshal to fail")
			}
		})
	}
}

func TestState_ZeroValueIsUsable(t *testing.T) {
	var s State
	if s.Len() != 0 {
		t.Error("zero state should be empty")
	}
	if _, ok := s.Lookup("[EMAIL_1]"); ok {
		t.Error("zero state should not resolve labels")
	}
	s2 := s.WithToken(emailToken(1, "a@x.com"))
	if s2.Len() != 1 {
		t.Error("WithToken on zero state should work")
	}
}
