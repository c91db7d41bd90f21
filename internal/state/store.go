// Package state persists the last delivered fingerprint per content
// source so restarts do not re-notify unchanged content.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	// schemaVersion tags the file layout. Absent fields in older files
	// are treated as defaults, never as errors.
	schemaVersion = 1

	stateFilePerm = 0o644
	stateDirPerm  = 0o755
)

// State is the only persisted entity: the source page's "last updated"
// marker and the fingerprint of the last successfully delivered content.
type State struct {
	Version     int    `json:"version"`
	Marker      string `json:"marker"`
	Fingerprint string `json:"fingerprint"`
}

// Empty reports whether no prior run was recorded.
func (s State) Empty() bool {
	return s.Fingerprint == ""
}

// Store reads and writes one source's state file. A single pipeline run is
// the only writer; load-compare-save is never concurrent within a source.
type Store struct {
	path   string
	logger *zerolog.Logger
}

// NewStore creates a store for the given source under dir.
func NewStore(dir, source string, logger *zerolog.Logger) *Store {
	return &Store{
		path:   filepath.Join(dir, source+".json"),
		logger: logger,
	}
}

// Load returns the persisted state. A missing or unreadable file yields
// the zero state so the next comparison is treated as "changed"; it never
// returns an error for corruption.
func (s *Store) Load() State {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("cannot read state file, assuming no prior state")
		}

		return State{Version: schemaVersion}
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("corrupted state file, assuming no prior state")

		return State{Version: schemaVersion}
	}

	state.Version = schemaVersion

	return state
}

// Save writes the state atomically: the document lands in a temp file
// first and is renamed over the target, so a crash mid-write never leaves
// a half-written file to be read back as valid.
func (s *Store) Save(state State) error {
	state.Version = schemaVersion

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), stateDirPerm); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, stateFilePerm); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}

	return nil
}
