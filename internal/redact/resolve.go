// Package redact implements the stateless redaction and reversal
// engine: overlap resolution, name-identity grouping, text rewriting
// and the hallucination-recovery pass.
package redact

import (
	"sort"

	"piigate/internal/core"
)

// ResolveOverlaps turns a raw, possibly-overlapping candidate list into
// a disjoint list in document order. Candidates are ranked by start
// ascending, then span length descending, then confidence descending,
// and accepted greedily when they do not overlap an already accepted
// span. Among overlapping candidates this prefers the longer, more
// specific match, then the more confident one.
//
// The function is idempotent on an already-disjoint, ordered input.
func ResolveOverlaps(entities []core.Entity) []core.Entity {
	if len(entities) == 0 {
		return nil
	}

	ranked := make([]core.Entity, len(entities))
	copy(ranked, entities)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Start != ranked[j].Start {
			return ranked[i].Start < ranked[j].Start
		}
		if ranked[i].Len() != ranked[j].Len() {
			return ranked[i].Len() > ranked[j].Len()
		}
		return ranked[i].Confidence > ranked[j].Confidence
	})

	resolved := make([]core.Entity, 0, len(ranked))
	lastEnd := -1
	for _, e := range ranked {
		if e.Start >= lastEnd {
			resolved = append(resolved, e)
			lastEnd = e.End
		}
	}
	return resolved
}
