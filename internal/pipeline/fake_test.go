package pipeline

import (
	"context"
	"fmt"
)

// fakeQueryExecutor is an in-memory QueryExecutor for tests. Scalar queries
// resolve against the scalars map; queries in missing return no value, and
// queries in queryErrs fail outright.
type fakeQueryExecutor struct {
	scalars   map[string]float64
	missing   map[string]bool
	queryErrs map[string]error
	execErrs  map[string]error

	executed []string
	queried  []string
}

func newFakeQueryExecutor() *fakeQueryExecutor {
	return &fakeQueryExecutor{
		scalars:   make(map[string]float64),
		missing:   make(map[string]bool),
		queryErrs: make(map[string]error),
		execErrs:  make(map[string]error),
	}
}

func (f *fakeQueryExecutor) Execute(ctx context.Context, command string) error {
	f.executed = append(f.executed, command)
	return f.execErrs[command]
}

func (f *fakeQueryExecutor) QueryScalar(ctx context.Context, query string) (float64, bool, error) {
	f.queried = append(f.queried, query)
	if err := f.queryErrs[query]; err != nil {
		return 0, false, err
	}
	if f.missing[query] {
		return 0, false, nil
	}
	value, ok := f.scalars[query]
	if !ok {
		return 0, false, fmt.Errorf("unexpected query: %s", query)
	}
	return value, true, nil
}

type fakeScriptSource struct {
	scripts map[string]string
}

func (f *fakeScriptSource) Load(name string) (string, error) {
	script, ok := f.scripts[name]
	if !ok {
		return "", fmt.Errorf("script %s not found", name)
	}
	return script, nil
}
