package store

import (
	"fmt"
	"strconv"
)

// Log renders the persisted run as the same flat, ordered lines the executor
// produced when the run finished.
func (r *RunReport) Log() []string {
	total := len(r.Stages)
	lines := make([]string, 0, total+1)

	for i, stage := range r.Stages {
		lines = append(lines, fmt.Sprintf(
			"[%d/%d] %s: %s", i+1, total, stage.Name, stage.Status,
		))
		for _, a := range r.Assertions[stage.StageResultID] {
			line := fmt.Sprintf(
				"  -> %s (%s %s): %s",
				a.Name, comparatorSymbol(a.Comparator), formatNumber(a.Expected), a.Status,
			)
			switch {
			case a.Status == "passed" && a.Actual != nil:
				line += fmt.Sprintf(", got %s", formatNumber(*a.Actual))
			case a.Reason != nil:
				line += ": " + *a.Reason
			}
			lines = append(lines, line)
		}
	}

	switch {
	case r.Run.Status == StatusAborted && r.Run.FailedStage != nil:
		idx := *r.Run.FailedStage
		cause := ""
		if r.Run.Cause != nil {
			cause = *r.Run.Cause
		}
		lines = append(lines, fmt.Sprintf(
			"run aborted at stage %d (%s): %s",
			idx+1, r.Stages[idx].Name, cause,
		))
	case r.Run.Status == StatusCompleted:
		lines = append(lines, fmt.Sprintf("run completed: %d/%d stages succeeded", total, total))
	default:
		lines = append(lines, fmt.Sprintf("run %s", r.Run.Status))
	}

	return lines
}

func comparatorSymbol(c string) string {
	switch c {
	case "ge":
		return ">="
	case "le":
		return "<="
	}
	return "=="
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
