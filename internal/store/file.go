package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"questsync/internal/logging"
)

// FileStore persists state as a JSON file on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path. The file
// does not need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing file is an empty state; a corrupt
// file is logged and treated as empty rather than blocking the cycle.
func (f *FileStore) Load(ctx context.Context) (*State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), fmt.Errorf("failed to read state file: %w", err)
	}

	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		logging.Get().WithComponent("store").WithError(err).
			WithField("path", f.path).
			Warn("State file is corrupt, starting with empty state")
		return NewState(), nil
	}

	return state, nil
}

// Save writes the state atomically: the document lands in a temp file
// first and replaces the old one with a rename, so a crash mid-write
// never leaves a half-written state behind.
func (f *FileStore) Save(ctx context.Context, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Clear removes the state file. A missing file is already clear.
func (f *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (f *FileStore) Close() error {
	return nil
}
