// internal/config/state.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultState is the front-end state used when no state file exists yet.
func DefaultState() *State {
	st := &State{
		Connection: Settings{
			Mode:    ModeTCP,
			SlaveID: 1,
			IP:      "127.0.0.1",
		},
		DisplayFormat:  "hex",
		PollIntervalMs: 2000,
	}
	Normalize(&st.Connection)
	return st
}

// LoadState reads persisted front-end state from path.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read state: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("config: parse state: %w", err)
	}

	return &st, nil
}

// SaveState writes persisted front-end state to path.
func SaveState(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("config: encode state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write state: %w", err)
	}

	return nil
}
