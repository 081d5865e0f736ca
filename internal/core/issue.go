package core

import "fmt"

// IssueType classifies why a label found during reversal could not be
// resolved cleanly.
type IssueType string

const (
	// IssueHallucination marks a label-shaped substring with no known
	// binding; presumed fabricated by the intermediate process.
	IssueHallucination IssueType = "hallucination"
	// IssueFuzzyMatch marks a label resolved to a known binding by
	// near-exact textual similarity.
	IssueFuzzyMatch IssueType = "fuzzy_match"
)

// Issue describes one label encountered during reversal that did not
// resolve to a known token, or resolved only approximately. Issues are
// values, never errors: reversal always returns best-effort text plus
// the list of what it could not resolve.
type Issue struct {
	Label       string    `json:"label"`
	Type        IssueType `json:"issue_type"`
	Replacement string    `json:"replacement,omitempty"`
	Confidence  float64   `json:"confidence"`
	Details     string    `json:"details,omitempty"`
}

// String renders the issue for logs.
func (i Issue) String() string {
	if i.Replacement != "" {
		return fmt.Sprintf("%s: %s -> %s (confidence: %.2f)", i.Type, i.Label, i.Replacement, i.Confidence)
	}
	return fmt.Sprintf("%s: %s (no replacement found)", i.Type, i.Label)
}
