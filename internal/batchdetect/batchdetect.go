// Package batchdetect runs one detection pass over many fields by
// composing them into a single document with a reserved separator,
// then mapping detected spans back to field-local offsets.
package batchdetect

import (
	"context"
	"sort"
	"strings"

	"piigate/internal/core"
)

// Separator joins fields in the composite document. The pilcrow pair
// is vanishingly rare in real content and survives round trips through
// text-only detection backends. Input containing it is rejected before
// composition rather than silently corrupted.
const Separator = "\n¶¶\n"

// fieldSpan records where one field landed in the composite.
type fieldSpan struct {
	name  string
	start int
	end   int
}

// Detector composes fields, runs the wrapped detector once, and splits
// the results back per field. Spans that cross a field boundary are
// artifacts of composition and are dropped.
type Detector struct {
	detector core.Detector
}

// New wraps a detector for batch use.
func New(detector core.Detector) *Detector {
	return &Detector{detector: detector}
}

// Detect runs one detection pass over all fields. The result maps each
// non-empty input field to its entities with field-local offsets;
// fields with no findings map to a nil slice. Either every field is
// processed or none is: a reserved-separator collision or a detector
// failure aborts the whole call.
func (d *Detector) Detect(ctx context.Context, fields map[string]string) (map[string][]core.Entity, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	// Reject before composing: the error names every offending field,
	// not just the first.
	var offenders []string
	for _, name := range names {
		if strings.Contains(fields[name], Separator) {
			offenders = append(offenders, name)
		}
	}
	if len(offenders) > 0 {
		return nil, &core.BatchError{
			Message:        "cannot compose fields for batch detection",
			FailedFields:   offenders,
			SeparatorIssue: true,
		}
	}

	results := make(map[string][]core.Entity, len(fields))
	var spans []fieldSpan
	var b strings.Builder
	for _, name := range names {
		value := fields[name]
		if value == "" {
			continue
		}
		if len(spans) > 0 {
			b.WriteString(Separator)
		}
		start := b.Len()
		b.WriteString(value)
		spans = append(spans, fieldSpan{name: name, start: start, end: b.Len()})
		results[name] = nil
	}
	if len(spans) == 0 {
		return results, nil
	}

	entities, err := d.detector.Detect(ctx, b.String())
	if err != nil {
		failed := make([]string, len(spans))
		for i, s := range spans {
			failed[i] = s.name
		}
		return nil, core.NewDetectorError(failed, err)
	}

	for _, e := range entities {
		span, ok := containing(spans, e)
		if !ok {
			continue
		}
		local, err := core.NewEntity(e.Kind, e.Value, e.Start-span.start, e.End-span.start, e.Confidence)
		if err != nil {
			continue
		}
		results[span.name] = append(results[span.name], local)
	}
	return results, nil
}

// containing finds the field whose composite interval fully contains
// the entity. Boundary-crossing entities have no containing field.
func containing(spans []fieldSpan, e core.Entity) (fieldSpan, bool) {
	i := sort.Search(len(spans), func(i int) bool {
		return spans[i].end >= e.End
	})
	if i < len(spans) && spans[i].start <= e.Start && e.End <= spans[i].end {
		return spans[i], true
	}
	return fieldSpan{}, false
}
