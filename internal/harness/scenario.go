package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/constfold/internal/engine"
	"github.com/roach88/constfold/internal/fold"
)

// Scenario is a list of builtin calls with their expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Flags names the flags to fold under. When absent the default flags
	// apply; an empty list clears every flag.
	Flags []string `yaml:"flags,omitempty"`

	// Target gives the count-at-zero values of the simulated machine.
	Target *fold.Target `yaml:"target,omitempty"`

	// Cases are folded as one batch, in order.
	Cases []Case `yaml:"cases"`

	// Assertions check the trace as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID names the journaled run. Defaults to "scenario-run" so traces
	// are reproducible.
	RunID string `yaml:"run_id,omitempty"`
}

// Case is one call and the outcome it must have. Exactly one of Expect,
// NotFolded and Invalid is set.
type Case struct {
	Name string   `yaml:"name,omitempty"`
	Fn   string   `yaml:"fn"`
	Type string   `yaml:"type"`
	Args []string `yaml:"args"`

	// Expect is the folded result in constant text form. It is compared
	// bitwise, so "ieee_double=0.5" matches "ieee_double=0x1p-1".
	Expect string `yaml:"expect,omitempty"`

	// NotFolded means the call is valid but must be left for run time.
	NotFolded bool `yaml:"not_folded,omitempty"`

	// Invalid means the call must be rejected as malformed.
	Invalid bool `yaml:"invalid,omitempty"`
}

// Assertion checks the whole trace.
type Assertion struct {
	// Type is one of status_count, fn_count or trace_contains.
	Type string `yaml:"type"`

	// Status filters status_count.
	Status string `yaml:"status,omitempty"`

	// Fn filters fn_count and trace_contains.
	Fn string `yaml:"fn,omitempty"`

	// Result is the folded value trace_contains looks for.
	Result string `yaml:"result,omitempty"`

	// Count is the expected number of matching events.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStatusCount   = "status_count"
	AssertFnCount       = "fn_count"
	AssertTraceContains = "trace_contains"
)

const defaultRunID = "scenario-run"

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Requests returns the cases as engine requests.
func (s *Scenario) Requests() []engine.Request {
	reqs := make([]engine.Request, len(s.Cases))
	for i, c := range s.Cases {
		args := c.Args
		if args == nil {
			args = []string{}
		}
		reqs[i] = engine.Request{Fn: c.Fn, Type: c.Type, Args: args}
	}
	return reqs
}

// FoldFlags returns the flags the scenario folds under.
func (s *Scenario) FoldFlags() (fold.Flags, error) {
	if s.Flags == nil {
		return fold.DefaultFlags(), nil
	}
	return fold.ParseFlags(s.Flags)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if _, err := s.FoldFlags(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	for i, c := range s.Cases {
		if c.Fn == "" {
			return fmt.Errorf("cases[%d]: fn is required", i)
		}
		if c.Type == "" {
			return fmt.Errorf("cases[%d]: type is required", i)
		}
		n := 0
		if c.Expect != "" {
			n++
		}
		if c.NotFolded {
			n++
		}
		if c.Invalid {
			n++
		}
		if n != 1 {
			return fmt.Errorf("cases[%d]: exactly one of expect, not_folded or invalid is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertStatusCount:
		switch engine.Status(a.Status) {
		case engine.StatusFolded, engine.StatusNotFolded, engine.StatusInvalid:
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q for status_count", index, a.Status)
		}
	case AssertFnCount:
		if a.Fn == "" {
			return fmt.Errorf("assertions[%d]: fn is required for fn_count", index)
		}
	case AssertTraceContains:
		if a.Fn == "" {
			return fmt.Errorf("assertions[%d]: fn is required for trace_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
