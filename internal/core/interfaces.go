package core

import "context"

// Detector is the external entity-detection contract: given text,
// return typed spans with confidence. Implementations must return
// entities whose offsets index into the exact text they were given.
// The core never validates span correctness; it trusts its detector.
type Detector interface {
	Detect(ctx context.Context, text string) ([]Entity, error)
}

// NameParsingDetector is an optional extension for detectors that can
// expand PERSON spans into TITLE/FIRST/MIDDLE/LAST sub-spans. Callers
// resolve the capability once, by type assertion at construction, and
// fall back to plain Detect otherwise.
type NameParsingDetector interface {
	Detector
	DetectWithNameParsing(ctx context.Context, text string) ([]Entity, error)
}

// HallucinationHandler decides what to do with a label encountered
// during reversal that has no binding in the state. Handle returns nil
// when the label is actually valid, or an Issue describing the
// classification. In strict mode fuzzy matches must be rejected.
type HallucinationHandler interface {
	Handle(label string, state State, strict bool) *Issue
}

// FieldSource is the structured-record contract: enumerate every
// string-valued leaf of a nested record as path -> value, and accept
// path -> new value writes to reconstruct an equivalent record. The
// core is agnostic to how the record represents itself; only the
// {path: text} mapping matters.
type FieldSource interface {
	Fields() (map[string]string, error)
	Apply(values map[string]string) error
}
