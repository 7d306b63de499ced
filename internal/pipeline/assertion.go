package pipeline

import "context"

// AssertionSpec is one named data-quality rule: a scalar query whose result
// is compared against an expected value or threshold. Expected defaults to
// zero, which suits the usual "count of violations" style of check.
type AssertionSpec struct {
	Name       string     `yaml:"name"`
	Query      string     `yaml:"query"`
	Comparator Comparator `yaml:"comparator"`
	Expected   float64    `yaml:"expected"`
}

type OutcomeStatus string

const (
	OutcomeNotRun OutcomeStatus = "not_run"
	OutcomePassed OutcomeStatus = "passed"
	OutcomeFailed OutcomeStatus = "failed"
	OutcomeError  OutcomeStatus = "error"
)

type AssertionResult struct {
	Name       string
	Comparator Comparator
	Expected   float64
	// Actual is nil when the query produced no value or could not run.
	Actual *float64
	Status OutcomeStatus
	Cause  error
}

func evaluateAssertion(
	ctx context.Context,
	spec AssertionSpec,
	queries QueryExecutor,
) AssertionResult {
	result := AssertionResult{
		Name:       spec.Name,
		Comparator: spec.Comparator,
		Expected:   spec.Expected,
	}

	actual, ok, err := queries.QueryScalar(ctx, spec.Query)
	if err != nil {
		result.Status = OutcomeError
		result.Cause = QueryExecutionError{Statement: spec.Query, Err: err}
		return result
	}
	if !ok {
		result.Status = OutcomeFailed
		result.Cause = MissingResultError{Name: spec.Name}
		return result
	}

	result.Actual = &actual
	if !spec.Comparator.Compare(actual, spec.Expected) {
		result.Status = OutcomeFailed
		result.Cause = AssertionError{
			Name:       spec.Name,
			Comparator: spec.Comparator,
			Expected:   spec.Expected,
			Actual:     actual,
		}
		return result
	}

	result.Status = OutcomePassed
	return result
}

// evaluateGate runs assertions in declared order and fails fast: the first
// failed or errored assertion becomes the gate's cause and every remaining
// assertion stays not_run.
func evaluateGate(
	ctx context.Context,
	specs []AssertionSpec,
	queries QueryExecutor,
) ([]AssertionResult, error) {
	results := make([]AssertionResult, len(specs))
	for i, spec := range specs {
		results[i] = AssertionResult{
			Name:       spec.Name,
			Comparator: spec.Comparator,
			Expected:   spec.Expected,
			Status:     OutcomeNotRun,
		}
	}

	for i, spec := range specs {
		results[i] = evaluateAssertion(ctx, spec, queries)
		if results[i].Status != OutcomePassed {
			return results, results[i].Cause
		}
	}

	return results, nil
}
