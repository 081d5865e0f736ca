// Package core defines the core types and interfaces for the redaction engine.
package core

import "fmt"

// Kind classifies the type of sensitive data found in text.
type Kind string

// Supported PII kinds. The set is closed: labels on the wire only ever
// carry one of these names.
const (
	KindPerson       Kind = "PERSON"
	KindNameFirst    Kind = "NAME_FIRST"
	KindNameMiddle   Kind = "NAME_MIDDLE"
	KindNameLast     Kind = "NAME_LAST"
	KindNameTitle    Kind = "NAME_TITLE"
	KindEmail        Kind = "EMAIL"
	KindPhone        Kind = "PHONE"
	KindAddress      Kind = "ADDRESS"
	KindSSN          Kind = "SSN"
	KindCreditCard   Kind = "CREDIT_CARD"
	KindDate         Kind = "DATE"
	KindIPAddress    Kind = "IP_ADDRESS"
	KindURL          Kind = "URL"
	KindLocation     Kind = "LOCATION"
	KindOrganization Kind = "ORGANIZATION"
	KindCustom       Kind = "CUSTOM"
)

// allKinds enumerates every valid kind for validation and parsing.
var allKinds = map[Kind]struct{}{
	KindPerson: {}, KindNameFirst: {}, KindNameMiddle: {}, KindNameLast: {},
	KindNameTitle: {}, KindEmail: {}, KindPhone: {}, KindAddress: {},
	KindSSN: {}, KindCreditCard: {}, KindDate: {}, KindIPAddress: {},
	KindURL: {}, KindLocation: {}, KindOrganization: {}, KindCustom: {},
}

// Valid reports whether k is one of the closed enumeration values.
func (k Kind) Valid() bool {
	_, ok := allKinds[k]
	return ok
}

// IsNameComponent reports whether k is a parsed name component
// (title, first, middle, last). PERSON spans are whole-name detections
// and are not components.
func (k Kind) IsNameComponent() bool {
	switch k {
	case KindNameFirst, KindNameMiddle, KindNameLast, KindNameTitle:
		return true
	}
	return false
}

// IsNameBearing reports whether values of this kind carry person-name
// words. Name-bearing kinds share one identity index space in the
// cross-field tracker.
func (k Kind) IsNameBearing() bool {
	return k == KindPerson || k.IsNameComponent()
}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown PII kind: %q", s)
	}
	return k, nil
}
