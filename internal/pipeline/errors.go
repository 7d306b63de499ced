package pipeline

import "fmt"

// QueryExecutionError means the warehouse could not run a command or query
// at all: connectivity, syntax, permissions.
type QueryExecutionError struct {
	Statement string
	Err       error
}

func (e QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e QueryExecutionError) Unwrap() error {
	return e.Err
}

// AssertionError means the assertion query ran but the comparison failed.
type AssertionError struct {
	Name       string
	Comparator Comparator
	Expected   float64
	Actual     float64
}

func (e AssertionError) Error() string {
	return fmt.Sprintf(
		"%s: expected %s, got %s",
		e.Name,
		e.Comparator.Describe(e.Expected),
		formatNumber(e.Actual),
	)
}

// MissingResultError means the assertion query ran but produced no scalar
// value (no row, or NULL). This is never treated as zero.
type MissingResultError struct {
	Name string
}

func (e MissingResultError) Error() string {
	return fmt.Sprintf("%s: query returned no value", e.Name)
}
