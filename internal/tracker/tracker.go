// Package tracker assigns identity indices to entities across many
// fields and calls. Unlike the per-call grouping inside the redaction
// engine, a Tracker is persistent: registries only grow, and one
// instance may be shared by concurrent goroutines.
package tracker

import (
	"strings"
	"sync"

	"piigate/internal/core"
)

// wordCutset strips punctuation that commonly clings to name words.
const wordCutset = ".,;:'\""

// valueKey identifies one tracked value.
type valueKey struct {
	kind  core.Kind
	value string
}

// Tracker is a persistent identity registry. Name-bearing kinds
// (PERSON and the NAME_* components) share one index space, so "Jane
// Doe" seen as PERSON in one field and "Jane" seen as NAME_FIRST in
// another resolve to the same index. Other kinds number independently.
//
// All registries are guarded by one mutex; entries are never removed.
type Tracker struct {
	mu sync.Mutex

	// byValue deduplicates by (kind, normalized value), keeping the
	// highest-confidence instance seen for each key.
	byValue map[valueKey]core.Token

	// wordIndex maps each normalized constituent word of a name-bearing
	// value to its identity index, so a later bare "Jane" resolves to
	// the identity established by an earlier "Jane Doe".
	wordIndex map[string]int

	// lastToFirst records first-seen "First Last" adjacency so a lone
	// last name can reach its identity through the bound first name.
	lastToFirst map[string]string

	nameCounter  int
	kindCounters map[core.Kind]int
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		byValue:      make(map[valueKey]core.Token),
		wordIndex:    make(map[string]int),
		lastToFirst:  make(map[string]string),
		kindCounters: make(map[core.Kind]int),
	}
}

// Field pairs a field name with its detected entities, in document
// order. A slice of Fields preserves cross-field ordering, which a map
// cannot.
type Field struct {
	Name     string
	Entities []core.Entity
}

// Track resolves one entity to its identity token, minting a new index
// only when no registry can place it. The returned token carries the
// entity's own casing; the registry keeps whichever instance of the
// value had the highest confidence.
func (t *Tracker) Track(e core.Entity) core.Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.track(e)
}

// AssignTokens resolves every entity of every field against the shared
// registries, in document order. Repeated values across fields come
// back with identical labels.
func (t *Tracker) AssignTokens(fields []Field) map[string][]core.Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make(map[string][]core.Token, len(fields))
	for _, field := range fields {
		tokens := make([]core.Token, 0, len(field.Entities))
		for _, e := range field.Entities {
			tokens = append(tokens, t.track(e))
		}
		result[field.Name] = tokens
	}
	return result
}

// Len reports the number of distinct tracked values.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byValue)
}

// track must be called with the mutex held.
func (t *Tracker) track(e core.Entity) core.Token {
	key := valueKey{kind: e.Kind, value: normalize(e.Value)}

	if known, ok := t.byValue[key]; ok {
		if e.Confidence > known.Entity.Confidence {
			known.Entity = e
			t.byValue[key] = known
		}
		return core.Token{Original: e.Value, Kind: e.Kind, Index: known.Index, Entity: e}
	}

	var idx int
	if e.Kind.IsNameBearing() {
		idx = t.resolveNameIndex(e.Value)
	} else {
		t.kindCounters[e.Kind]++
		idx = t.kindCounters[e.Kind]
	}

	tok := core.Token{Original: e.Value, Kind: e.Kind, Index: idx, Entity: e}
	t.byValue[key] = tok
	if e.Kind.IsNameBearing() {
		t.registerAliases(e.Value, idx)
	}
	return tok
}

// resolveNameIndex places a name-bearing value into the shared index
// space: first through its constituent words, then through a learned
// last-name binding, and only then by minting a fresh index.
func (t *Tracker) resolveNameIndex(value string) int {
	words := nameWords(value)

	best := 0
	for _, w := range words {
		if idx, ok := t.wordIndex[w]; ok {
			if best == 0 || idx < best {
				best = idx
			}
		}
	}
	if best != 0 {
		return best
	}

	if len(words) == 1 {
		if first, ok := t.lastToFirst[words[0]]; ok {
			if idx, ok := t.wordIndex[first]; ok {
				return idx
			}
		}
	}

	t.nameCounter++
	return t.nameCounter
}

// registerAliases binds every word of a newly indexed value, plus the
// First Last adjacency for two-word phrases. Existing bindings are
// never overwritten: the first identity a word reached keeps it.
func (t *Tracker) registerAliases(value string, idx int) {
	words := nameWords(value)
	for _, w := range words {
		if _, ok := t.wordIndex[w]; !ok {
			t.wordIndex[w] = idx
		}
	}
	if len(words) == 2 {
		if _, ok := t.lastToFirst[words[1]]; !ok {
			t.lastToFirst[words[1]] = words[0]
		}
	}
}

// normalize folds case and surrounding space for value comparison.
func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// nameWords splits a value into normalized words, stripping clinging
// punctuation. Empty fragments (a lone comma, say) are dropped.
func nameWords(value string) []string {
	fields := strings.Fields(normalize(value))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.Trim(f, wordCutset); w != "" {
			words = append(words, w)
		}
	}
	return words
}
