package pipeline

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// PipelineSpec is the declarative description of one pipeline: an ordered
// stage list plus parameters expanded into the SQL text. New quality rules
// are additions to the yaml, not to code.
type PipelineSpec struct {
	Name   string            `yaml:"pipeline"`
	Params map[string]string `yaml:"params"`
	Stages []StageSpec       `yaml:"stages"`
}

func ParsePipelineSpec(b []byte) (*PipelineSpec, error) {
	spec := new(PipelineSpec)
	if err := yaml.Unmarshal(b, spec); err != nil {
		return nil, fmt.Errorf("err unmarshaling pipeline yaml: %w", err)
	}
	spec.normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func LoadPipelineSpec(path string) (*PipelineSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("err reading pipeline spec: %w", err)
	}
	return ParsePipelineSpec(b)
}

// normalize applies defaults and expands ${param} references in SQL text.
// A missing comparator means an exact match, the common case for
// count-of-violations checks.
func (spec *PipelineSpec) normalize() {
	expand := func(s string) string {
		return os.Expand(s, func(key string) string {
			return spec.Params[key]
		})
	}
	for i := range spec.Stages {
		stage := &spec.Stages[i]
		if stage.Action != nil {
			stage.Action.SQL = expand(stage.Action.SQL)
		}
		for j := range stage.Assertions {
			a := &stage.Assertions[j]
			if a.Comparator == "" {
				a.Comparator = Equals
			}
			a.Query = expand(a.Query)
		}
	}
}

func (spec *PipelineSpec) Validate() error {
	if spec.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(spec.Stages) == 0 {
		return fmt.Errorf("pipeline %q has no stages", spec.Name)
	}

	stageNames := make(map[string]struct{}, len(spec.Stages))
	for i, stage := range spec.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage %d has no name", i)
		}
		if _, ok := stageNames[stage.Name]; ok {
			return fmt.Errorf("duplicate stage name %q", stage.Name)
		}
		stageNames[stage.Name] = struct{}{}

		hasAction := stage.Action != nil
		hasAssertions := len(stage.Assertions) > 0
		if hasAction == hasAssertions {
			return fmt.Errorf(
				"stage %q must declare exactly one of action or assertions",
				stage.Name,
			)
		}

		if hasAction {
			if err := validateAction(stage); err != nil {
				return err
			}
			continue
		}
		if err := validateGate(stage); err != nil {
			return err
		}
	}

	return nil
}

func validateAction(stage StageSpec) error {
	hasSQL := stage.Action.SQL != ""
	hasScript := stage.Action.Script != ""
	if hasSQL == hasScript {
		return fmt.Errorf(
			"action stage %q must declare exactly one of sql or script",
			stage.Name,
		)
	}
	return nil
}

func validateGate(stage StageSpec) error {
	names := make(map[string]struct{}, len(stage.Assertions))
	for _, a := range stage.Assertions {
		if a.Name == "" {
			return fmt.Errorf("stage %q has an assertion without a name", stage.Name)
		}
		if _, ok := names[a.Name]; ok {
			return fmt.Errorf(
				"stage %q has duplicate assertion %q",
				stage.Name, a.Name,
			)
		}
		names[a.Name] = struct{}{}
		if a.Query == "" {
			return fmt.Errorf(
				"assertion %q in stage %q has no query",
				a.Name, stage.Name,
			)
		}
		if !a.Comparator.Valid() {
			return fmt.Errorf(
				"assertion %q in stage %q has invalid comparator %q",
				a.Name, stage.Name, string(a.Comparator),
			)
		}
	}
	return nil
}
