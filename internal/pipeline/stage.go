package pipeline

import (
	"context"
	"fmt"
)

type StageKind string

const (
	KindAction      StageKind = "action"
	KindQualityGate StageKind = "quality_gate"
)

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// ActionSpec is the opaque command an action stage hands to the warehouse:
// either inline SQL or the name of a script resolved through a ScriptSource.
// Exactly one of the two is set.
type ActionSpec struct {
	SQL    string `yaml:"sql"`
	Script string `yaml:"script"`
}

// StageSpec is one ordered unit of pipeline work. Exactly one of Action and
// Assertions is populated; a stage with assertions is a quality gate.
type StageSpec struct {
	Name       string          `yaml:"stage"`
	Action     *ActionSpec     `yaml:"action"`
	Assertions []AssertionSpec `yaml:"assertions"`
}

func (s StageSpec) Kind() StageKind {
	if s.Action != nil {
		return KindAction
	}
	return KindQualityGate
}

type StageResult struct {
	Name   string
	Kind   StageKind
	Status StageStatus
	Cause  error
	// Assertions is populated for quality gates only.
	Assertions []AssertionResult
}

func runStage(
	ctx context.Context,
	spec StageSpec,
	queries QueryExecutor,
	scripts ScriptSource,
) StageResult {
	result := StageResult{Name: spec.Name, Kind: spec.Kind()}

	switch spec.Kind() {
	case KindAction:
		command, err := resolveAction(spec.Action, scripts)
		if err != nil {
			result.Status = StageFailed
			result.Cause = err
			return result
		}
		if err := queries.Execute(ctx, command); err != nil {
			result.Status = StageFailed
			result.Cause = QueryExecutionError{Statement: command, Err: err}
			return result
		}
	case KindQualityGate:
		assertions, err := evaluateGate(ctx, spec.Assertions, queries)
		result.Assertions = assertions
		if err != nil {
			result.Status = StageFailed
			result.Cause = err
			return result
		}
	}

	result.Status = StageSucceeded
	return result
}

func resolveAction(action *ActionSpec, scripts ScriptSource) (string, error) {
	if action.SQL != "" {
		return action.SQL, nil
	}
	if scripts == nil {
		return "", fmt.Errorf("no script source configured for script %q", action.Script)
	}
	command, err := scripts.Load(action.Script)
	if err != nil {
		return "", fmt.Errorf("err loading script %q: %w", action.Script, err)
	}
	return command, nil
}
