package detect

import (
	"context"
	"strings"

	"piigate/internal/core"
)

// titles are honorifics recognized when splitting a whole-name span.
var titles = map[string]struct{}{
	"Dr.": {}, "Dr": {}, "Mr.": {}, "Mr": {}, "Mrs.": {}, "Mrs": {},
	"Ms.": {}, "Ms": {}, "Prof.": {}, "Prof": {}, "Rev.": {}, "Rev": {},
}

// NameParser wraps any detector and adds the name-parsing capability:
// PERSON spans from the base detector are split into TITLE / FIRST /
// MIDDLE / LAST component spans. Other entities pass through.
type NameParser struct {
	base core.Detector
}

// NewNameParser wraps a base detector.
func NewNameParser(base core.Detector) *NameParser {
	return &NameParser{base: base}
}

// Detect delegates to the base detector unchanged.
func (p *NameParser) Detect(ctx context.Context, text string) ([]core.Entity, error) {
	return p.base.Detect(ctx, text)
}

// DetectWithNameParsing detects, then expands each PERSON span into
// components. Position rules: honorifics are titles, the final word is
// the last name, the first non-title word is the first name, anything
// between is middle. A single-word person is not split and passes
// through as PERSON.
func (p *NameParser) DetectWithNameParsing(ctx context.Context, text string) ([]core.Entity, error) {
	base, err := p.base.Detect(ctx, text)
	if err != nil {
		return nil, err
	}

	var entities []core.Entity
	for _, e := range base {
		if e.Kind != core.KindPerson {
			entities = append(entities, e)
			continue
		}
		components := splitPerson(text, e)
		if len(components) == 0 {
			entities = append(entities, e)
			continue
		}
		entities = append(entities, components...)
	}
	return entities, nil
}

// splitPerson maps a PERSON span's words onto component entities with
// exact offsets into the source text.
func splitPerson(text string, person core.Entity) []core.Entity {
	parts := strings.Fields(person.Value)
	if len(parts) < 2 {
		return nil
	}

	var components []core.Entity
	pos := person.Start
	seenFirst := false
	for i, part := range parts {
		var kind core.Kind
		switch {
		case isTitle(part):
			kind = core.KindNameTitle
		case i == len(parts)-1:
			kind = core.KindNameLast
		case !seenFirst:
			kind = core.KindNameFirst
			seenFirst = true
		default:
			kind = core.KindNameMiddle
		}

		at := strings.Index(text[pos:], part)
		if at < 0 {
			continue
		}
		start := pos + at
		e, err := core.NewEntity(kind, part, start, start+len(part), person.Confidence)
		if err != nil {
			continue
		}
		components = append(components, e)
		pos = start + len(part)
	}
	return components
}

func isTitle(word string) bool {
	_, ok := titles[word]
	return ok
}
