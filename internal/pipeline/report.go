package pipeline

import "fmt"

// Report renders the run as a flat, ordered log: one line per stage, one
// indented line per gate assertion, and a final status line. The same lines
// back the CLI output, the stored run history, and the HTTP report.
func (r *Run) Report() []string {
	lines := make([]string, 0, len(r.Stages)+1)
	total := len(r.Stages)

	for i, stage := range r.Stages {
		lines = append(lines, fmt.Sprintf(
			"[%d/%d] %s: %s", i+1, total, stage.Name, stage.Status,
		))
		for _, a := range stage.Assertions {
			lines = append(lines, assertionLine(a))
		}
	}

	switch r.Status {
	case RunAborted:
		lines = append(lines, fmt.Sprintf(
			"run aborted at stage %d (%s): %v",
			r.FailedStage+1, r.Stages[r.FailedStage].Name, r.Cause,
		))
	default:
		lines = append(lines, fmt.Sprintf("run completed: %d/%d stages succeeded", total, total))
	}

	return lines
}

func assertionLine(a AssertionResult) string {
	line := fmt.Sprintf(
		"  -> %s (%s %s): %s",
		a.Name, a.Comparator, formatNumber(a.Expected), a.Status,
	)
	switch a.Status {
	case OutcomePassed:
		line += fmt.Sprintf(", got %s", formatNumber(*a.Actual))
	case OutcomeFailed, OutcomeError:
		line += fmt.Sprintf(": %v", a.Cause)
	}
	return line
}
