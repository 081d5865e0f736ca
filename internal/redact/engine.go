package redact

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"piigate/internal/core"
)

// Mode selects how reversal treats labels with no known binding.
type Mode string

const (
	// ModeStrict leaves unknown labels in place and reports them.
	ModeStrict Mode = "strict"
	// ModeFuzzy additionally repairs near-exact label typos.
	ModeFuzzy Mode = "fuzzy"
)

// labelScanPattern finds label-shaped substrings during reversal.
// Deliberately loose on case: a damaged label must still be found so
// it can be classified.
var labelScanPattern = regexp.MustCompile(`\[[A-Za-z_]+_\d+\]`)

// Redact is the stateless core: resolve overlaps, group identities,
// and rewrite text replacing each accepted span with its label.
// Spans are processed in reverse document order so earlier offsets
// stay valid while later ones are already consumed.
func Redact(text string, entities []core.Entity) (string, core.State) {
	state := core.NewState()
	if text == "" {
		return "", state
	}

	resolved := ResolveOverlaps(entities)
	pairs := assignIndices(resolved)

	redacted := text
	for i := len(pairs) - 1; i >= 0; i-- {
		entity := pairs[i].Entity
		tok := core.Token{
			Original: entity.Value,
			Kind:     entity.Kind,
			Index:    pairs[i].Index,
			Entity:   entity,
		}
		state = state.WithToken(tok)
		redacted = redacted[:entity.Start] + tok.Label() + redacted[entity.End:]
	}

	return redacted, state
}

// Unredact restores original values in labeled text against a state.
//
// Pass 1 replaces every known label with its bound original value.
// Pass 2 scans the partially restored text for remaining label-shaped
// substrings and hands each to the handler: strict mode classifies
// them as hallucinations and leaves them in place, fuzzy mode may
// resolve near-exact typos and apply the replacement. Issues are
// returned in scan order; reversal itself never fails.
func Unredact(text string, state core.State, mode Mode, handler core.HallucinationHandler) (string, []core.Issue) {
	if text == "" {
		return "", nil
	}
	if handler == nil {
		handler = NewHandler()
	}

	// Known labels are bracket-terminated and therefore prefix-free,
	// but substitute longest-first anyway so the order is safe for any
	// label set.
	labels := state.Labels()
	sort.SliceStable(labels, func(i, j int) bool {
		return len(labels[i]) > len(labels[j])
	})

	restored := text
	for _, label := range labels {
		if !strings.Contains(restored, label) {
			continue
		}
		tok, _ := state.Lookup(label)
		restored = strings.ReplaceAll(restored, label, tok.Original)
	}

	var issues []core.Issue
	seen := make(map[string]struct{})
	for _, label := range labelScanPattern.FindAllString(restored, -1) {
		if _, ok := state.Lookup(label); ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}

		issue := handler.Handle(label, state, mode != ModeFuzzy)
		if issue == nil {
			continue
		}
		issues = append(issues, *issue)
		if issue.Replacement != "" && mode == ModeFuzzy {
			restored = strings.ReplaceAll(restored, label, issue.Replacement)
		}
	}

	return restored, issues
}

// Config holds the engine's collaborators.
type Config struct {
	// Handler classifies unresolved labels during reversal.
	// Defaults to the fuzzy-matching Handler.
	Handler core.HallucinationHandler

	// DisableNameParsing skips the detector's name-parsing capability
	// even when it implements core.NameParsingDetector.
	DisableNameParsing bool
}

// Engine orchestrates detection, overlap resolution, identity grouping
// and text rewriting. It holds no mutable state: every call is
// independent, and one Engine may be shared by concurrent callers.
type Engine struct {
	detector   core.Detector
	nameParser core.NameParsingDetector // nil when unsupported or disabled
	handler    core.HallucinationHandler
}

// NewEngine creates an Engine around a detector. The detector's
// name-parsing capability is resolved once, here, by type assertion.
func NewEngine(detector core.Detector, cfg Config) *Engine {
	e := &Engine{
		detector: detector,
		handler:  cfg.Handler,
	}
	if e.handler == nil {
		e.handler = NewHandler()
	}
	if !cfg.DisableNameParsing {
		if np, ok := detector.(core.NameParsingDetector); ok {
			e.nameParser = np
		}
	}
	return e
}

// Redact detects PII in text and replaces each accepted span with its
// label. Empty input short-circuits without invoking the detector.
func (e *Engine) Redact(ctx context.Context, text string) (string, core.State, error) {
	if text == "" {
		return "", core.NewState(), nil
	}

	entities, err := e.detect(ctx, text)
	if err != nil {
		return "", core.State{}, fmt.Errorf("detect: %w", err)
	}

	redacted, state := Redact(text, entities)
	return redacted, state, nil
}

// Unredact reverses labeled text against a state using the engine's
// configured hallucination handler.
func (e *Engine) Unredact(text string, state core.State, mode Mode) (string, []core.Issue) {
	return Unredact(text, state, mode, e.handler)
}

// detect runs the detector, preferring the name-parsing capability
// resolved at construction.
func (e *Engine) detect(ctx context.Context, text string) ([]core.Entity, error) {
	if e.nameParser != nil {
		return e.nameParser.DetectWithNameParsing(ctx, text)
	}
	return e.detector.Detect(ctx, text)
}
