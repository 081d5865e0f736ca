package redact

import (
	"fmt"
	"strings"

	"piigate/internal/core"
)

// RemediationAction says what to do with one reported issue's label.
type RemediationAction string

const (
	// RemediationPreserve keeps the label text as-is.
	RemediationPreserve RemediationAction = "preserve"
	// RemediationReplace substitutes caller-provided text for the label.
	RemediationReplace RemediationAction = "replace"
	// RemediationIgnore removes the label from the text entirely.
	RemediationIgnore RemediationAction = "ignore"
	// RemediationFail aborts remediation with an error.
	RemediationFail RemediationAction = "fail"
)

// Remediation is one caller decision for one reversal issue.
type Remediation struct {
	Action RemediationAction
	Text   string // used by RemediationReplace
}

// Remediate applies caller decisions to the labels reported as issues
// by a reversal pass. The responses list must match the issues list
// one-to-one; a length mismatch is a programmer error and aborts the
// whole call without touching the text.
func Remediate(text string, issues []core.Issue, responses []Remediation) (string, error) {
	if len(responses) != len(issues) {
		return "", &core.ErrRemediationMismatch{Issues: len(issues), Responses: len(responses)}
	}

	result := text
	for i, issue := range issues {
		switch responses[i].Action {
		case RemediationPreserve, "":
			// Keep the label in place.
		case RemediationReplace:
			result = strings.ReplaceAll(result, issue.Label, responses[i].Text)
		case RemediationIgnore:
			result = strings.ReplaceAll(result, issue.Label, "")
		case RemediationFail:
			return "", fmt.Errorf("unresolved label %s: remediation requested failure: %s", issue.Label, issue.Details)
		default:
			return "", fmt.Errorf("unknown remediation action %q for label %s", responses[i].Action, issue.Label)
		}
	}
	return result, nil
}
