package redact

import (
	"strings"

	"piigate/internal/core"
)

// maxComponentGap is the widest gap, in bytes, between two adjacent
// name components still considered part of the same person mention.
// Covers a separating space or a single punctuation mark plus space.
const maxComponentGap = 2

// numbered pairs an accepted entity with its assigned label index.
type numbered struct {
	Entity core.Entity
	Index  int
}

// assignIndices walks resolved entities in document order and assigns
// label indices. Name components (title/first/middle/last) are grouped
// into person mentions and share one person index; everything else
// gets an independent per-kind sequence in acceptance order.
//
// Person identity within the call follows these rules:
//  1. an exact (first, last) pair seen before reuses its index;
//  2. a first name seen alone before, with no different last name
//     already bound to it, reuses that index and registers the pair;
//  3. a first name seen alone before but already bound to a different
//     last name mints a new index (same given name, different person);
//  4. a bare first name seen before reuses its index;
//  5. a bare last name behaves symmetrically over a last-name registry;
//  6. a group with neither first nor last always mints a new index.
func assignIndices(entities []core.Entity) []numbered {
	out := make([]numbered, 0, len(entities))
	kindCounters := make(map[core.Kind]int)

	// personRegistry keys are "first\x00last" for full names and
	// "\x00last" for bare last names; firstOnly tracks first names
	// seen without a last name.
	personRegistry := make(map[string]int)
	firstOnly := make(map[string]int)
	personCounter := 0

	i := 0
	for i < len(entities) {
		if !entities[i].Kind.IsNameComponent() {
			e := entities[i]
			kindCounters[e.Kind]++
			out = append(out, numbered{Entity: e, Index: kindCounters[e.Kind]})
			i++
			continue
		}

		// Collect consecutive name components into one person mention.
		group := []core.Entity{entities[i]}
		j := i + 1
		for j < len(entities) && entities[j].Kind.IsNameComponent() {
			if entities[j].Start-group[len(group)-1].End > maxComponentGap {
				break
			}
			group = append(group, entities[j])
			j++
		}

		var first, last string
		for _, e := range group {
			switch e.Kind {
			case core.KindNameFirst:
				first = strings.ToLower(e.Value)
			case core.KindNameLast:
				last = strings.ToLower(e.Value)
			}
		}

		var idx int
		switch {
		case first != "" && last != "":
			fullKey := first + "\x00" + last
			if known, ok := personRegistry[fullKey]; ok {
				idx = known
			} else if known, ok := firstOnly[first]; ok {
				if hasDifferentLastName(personRegistry, known, first, fullKey) {
					personCounter++
					idx = personCounter
					personRegistry[fullKey] = idx
				} else {
					idx = known
					personRegistry[fullKey] = idx
				}
			} else {
				personCounter++
				idx = personCounter
				personRegistry[fullKey] = idx
				firstOnly[first] = idx
			}
		case first != "":
			if known, ok := firstOnly[first]; ok {
				idx = known
			} else {
				personCounter++
				idx = personCounter
				firstOnly[first] = idx
			}
		case last != "":
			lastKey := "\x00" + last
			if known, ok := personRegistry[lastKey]; ok {
				idx = known
			} else {
				personCounter++
				idx = personCounter
				personRegistry[lastKey] = idx
			}
		default:
			// Title or middle name only.
			personCounter++
			idx = personCounter
		}

		for _, e := range group {
			out = append(out, numbered{Entity: e, Index: idx})
		}
		i = j
	}

	return out
}

// hasDifferentLastName reports whether the person at idx already has a
// full name registered under the given first name with a different
// last name than fullKey.
func hasDifferentLastName(personRegistry map[string]int, idx int, first, fullKey string) bool {
	prefix := first + "\x00"
	for key, registered := range personRegistry {
		if registered == idx && strings.HasPrefix(key, prefix) && key != fullKey {
			return true
		}
	}
	return false
}
