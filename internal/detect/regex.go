package detect

import (
	"context"

	"piigate/internal/core"
)

// RegexDetector implements core.Detector over the built-in pattern
// table. Overlapping matches across patterns are returned as-is; the
// redaction engine's overlap resolver arbitrates them.
type RegexDetector struct {
	patterns []Pattern
	extra    []Pattern
}

// NewRegexDetector builds a detector from the configured built-ins.
func NewRegexDetector(cfg Config) *RegexDetector {
	return &RegexDetector{patterns: enabledPatterns(cfg)}
}

// WithPattern adds a custom rule (typically kind CUSTOM) and returns
// the detector for chaining during construction.
func (d *RegexDetector) WithPattern(p Pattern) *RegexDetector {
	d.extra = append(d.extra, p)
	return d
}

// Detect scans the text with every enabled pattern.
func (d *RegexDetector) Detect(ctx context.Context, text string) ([]core.Entity, error) {
	if text == "" {
		return nil, nil
	}

	var entities []core.Entity
	for _, set := range [][]Pattern{d.patterns, d.extra} {
		for _, p := range set {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, loc := range p.Regexp.FindAllStringIndex(text, -1) {
				e, err := core.NewEntity(p.Kind, text[loc[0]:loc[1]], loc[0], loc[1], p.Confidence)
				if err != nil {
					continue
				}
				entities = append(entities, e)
			}
		}
	}
	return entities, nil
}
