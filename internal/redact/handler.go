package redact

import (
	"fmt"
	"regexp"
	"strings"

	"piigate/internal/core"
)

const (
	// defaultAcceptThreshold is the similarity a fuzzy candidate must
	// reach, after case folding, to be accepted as a match.
	defaultAcceptThreshold = 0.8
	// candidateCutoff is the looser pre-filter applied while searching
	// for the closest candidate.
	candidateCutoff = 0.7
)

// knownLabelPattern matches well-formed labels from the closed kind
// enumeration; looseLabelPattern additionally tolerates case damage
// introduced by the external process.
var (
	knownLabelPattern = regexp.MustCompile(`^\[([A-Z_]+)_(\d+)\]$`)
	looseLabelPattern = regexp.MustCompile(`^\[([A-Za-z_]+)_(\d+)\]$`)
)

// Handler is the default hallucination handler: it classifies unknown
// labels and, in fuzzy mode, repairs near-exact typos against the
// known label set. Matching never crosses numeric indices, so a typo
// of [EMAIL_2] can never be "corrected" into [EMAIL_1]'s value.
type Handler struct {
	threshold float64
}

// NewHandler returns a Handler with the default acceptance threshold.
func NewHandler() *Handler {
	return &Handler{threshold: defaultAcceptThreshold}
}

// NewHandlerWithThreshold overrides the acceptance threshold; values
// outside (0, 1] fall back to the default.
func NewHandlerWithThreshold(threshold float64) *Handler {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultAcceptThreshold
	}
	return &Handler{threshold: threshold}
}

// Handle classifies one unresolved label. Returns nil when the label
// is actually bound in state, an Issue otherwise.
func (h *Handler) Handle(label string, state core.State, strict bool) *core.Issue {
	if _, ok := state.Lookup(label); ok {
		return nil
	}

	if strict {
		return &core.Issue{
			Label:   label,
			Type:    core.IssueHallucination,
			Details: fmt.Sprintf("label %s not found in state (strict mode)", label),
		}
	}

	if match := h.closestMatch(label, state.Labels()); match != "" {
		similarity := similarityRatio(strings.ToUpper(label), strings.ToUpper(match))
		if similarity >= h.threshold {
			tok, _ := state.Lookup(match)
			return &core.Issue{
				Label:       label,
				Type:        core.IssueFuzzyMatch,
				Replacement: tok.Original,
				Confidence:  similarity,
				Details:     fmt.Sprintf("matched to %s with %.2f similarity", match, similarity),
			}
		}
	}

	return &core.Issue{
		Label:   label,
		Type:    core.IssueHallucination,
		Details: fmt.Sprintf("label %s appears to be fabricated by the external process", label),
	}
}

// closestMatch finds the best known-label candidate for an unknown
// label, or "" if none clears the pre-filter cutoff.
func (h *Handler) closestMatch(label string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	// Case-insensitive exact match first: pure case damage.
	for _, candidate := range candidates {
		if strings.EqualFold(candidate, label) {
			return candidate
		}
	}

	// Restrict to candidates sharing the same trailing numeric index.
	// Candidates that do not parse as labels pass through unfiltered.
	labelMatch := looseLabelPattern.FindStringSubmatch(label)
	filtered := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		candidateMatch := knownLabelPattern.FindStringSubmatch(candidate)
		if candidateMatch != nil && labelMatch != nil {
			if candidateMatch[2] == labelMatch[2] {
				filtered = append(filtered, candidate)
			}
			continue
		}
		filtered = append(filtered, candidate)
	}
	if len(filtered) == 0 {
		return ""
	}

	best := ""
	bestRatio := 0.0
	for _, candidate := range filtered {
		if r := similarityRatio(label, candidate); r > bestRatio {
			best = candidate
			bestRatio = r
		}
	}
	if bestRatio < candidateCutoff {
		return ""
	}
	return best
}
