package core

import (
	"strings"
	"testing"
)

func TestNewEntity_Validation(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		value      string
		start, end int
		confidence float64
		wantErr    string
	}{
		{
			name: "valid email entity",
			kind: KindEmail, value: "a@x.com", start: 0, end: 7, confidence: 0.9,
		},
		{
			name: "negative start",
			kind: KindEmail, value: "a@x.com", start: -1, end: 6, confidence: 0.9,
			wantErr: "non-negative",
		},
		{
			name: "end equal to start",
			kind: KindEmail, value: "a@x.com", start: 5, end: 5, confidence: 0.9,
			wantErr: "greater than start",
		},
		{
			name: "end before start",
			kind: KindEmail, value: "a@x.com", start: 5, end: 2, confidence: 0.9,
			wantErr: "greater than start",
		},
		{
			name: "confidence above one",
			kind: KindPhone, value: "555", start: 0, end: 3, confidence: 1.5,
			wantErr: "confidence",
		},
		{
			name: "confidence below zero",
			kind: KindPhone, value: "555", start: 0, end: 3, confidence: -0.1,
			wantErr: "confidence",
		},
		{
			name: "empty value",
			kind: KindPhone, value: "", start: 0, end: 3, confidence: 0.5,
			wantErr: "empty",
		},
		{
			name: "unknown kind",
			kind: Kind("PASSPORT"), value: "x", start: 0, end: 1, confidence: 0.5,
			wantErr: "valid kind",
		},
		{
			name: "boundary confidences accepted",
			kind: KindDate, value: "2024", start: 10, end: 14, confidence: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEntity(tt.kind, tt.value, tt.start, tt.end, tt.confidence)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewEntity() unexpected error: %v", err)
				}
				if e.Len() != tt.end-tt.start {
					t.Errorf("Len() = %d, want %d", e.Len(), tt.end-tt.start)
				}
				return
			}
			if err == nil {
				t.Fatalf("NewEntity() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestKind_Classification(t *testing.T) {
	if !KindNameFirst.IsNameComponent() || !KindNameTitle.IsNameComponent() {
		t.Error("name components should be classified as such")
	}
	if KindPerson.IsNameComponent() {
		t.Error("PERSON is a whole-name detection, not a component")
	}
	if !KindPerson.IsNameBearing() || !KindNameLast.IsNameBearing() {
		t.Error("PERSON and NAME_LAST are name-bearing")
	}
	if KindEmail.IsNameBearing() {
		t.Error("EMAIL is not name-bearing")
	}

	if _, err := ParseKind("CREDIT_CARD"); err != nil {
		t.Errorf("ParseKind(CREDIT_CARD) error: %v", err)
	}
	if _, err := ParseKind("credit_card"); err == nil {
		t.Error("ParseKind should reject lowercase kind names")
	}
}

func TestToken_Label(t *testing.T) {
	tok := Token{
		Original: "a@x.com",
		Kind:     KindEmail,
		Index:    3,
		Entity:   MustEntity(KindEmail, "a@x.com", 0, 7, 0.9),
	}
	if got := tok.Label(); got != "[EMAIL_3]" {
		t.Errorf("Label() = %q, want [EMAIL_3]", got)
	}
}
