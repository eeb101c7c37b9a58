// Package checkpoint persists pipeline progress between phases so an
// interrupted run can resume from the last completed phase. State lives in a
// single YAML file in the project root; version-control history remains the
// rollback mechanism, the checkpoint only records what already happened.
package checkpoint

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional checkpoint file name in the project root.
const FileName = ".restack.state.yaml"

// State records one run of the pipeline against one plan and environment.
type State struct {
	RunID       string               `yaml:"run_id"`
	PlanPath    string               `yaml:"plan_path"`
	Environment string               `yaml:"environment,omitempty"`
	Phases      map[string]time.Time `yaml:"phases,omitempty"`
}

// New creates a fresh state for a run.
func New(planPath, environment string) *State {
	return &State{
		RunID:       uuid.NewString(),
		PlanPath:    planPath,
		Environment: environment,
		Phases:      make(map[string]time.Time),
	}
}

// Matches reports whether the state belongs to the same plan and environment,
// i.e. whether resuming from it is meaningful.
func (s *State) Matches(planPath, environment string) bool {
	return s.PlanPath == planPath && s.Environment == environment
}

// MarkDone records the named phase as completed now.
func (s *State) MarkDone(phase string) {
	if s.Phases == nil {
		s.Phases = make(map[string]time.Time)
	}
	s.Phases[phase] = time.Now().UTC()
}

// Done reports whether the named phase completed in this state.
func (s *State) Done(phase string) bool {
	_, ok := s.Phases[phase]
	return ok
}

// Load reads a state file. A missing file is not an error and yields a nil
// state; a file that exists but cannot be parsed is an error.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	return &state, nil
}

// Save writes the state file, replacing any previous content.
func Save(path string, state *State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", path, err)
	}
	return nil
}
