// Package store persists reconciliation state: the sets of origin and
// mirror task IDs that have already had their completion processed.
//
// Two backends are provided. The file backend writes a single JSON
// document with an atomic rename; the redis backend keeps the same
// document under one key. Both treat missing or corrupt state as empty,
// because losing the processed sets costs duplicate credit at worst,
// never a wrong link.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Store loads and saves reconciliation state.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	Clear(ctx context.Context) error
	Close() error
}

// Open creates the store selected by the backend name. An empty name
// selects the file backend.
func Open(backend, path, redisURL string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendRedis:
		return NewRedisStore(redisURL)
	default:
		return nil, fmt.Errorf("unsupported state backend: %s", backend)
	}
}

// State holds the processed-task ID sets for both systems.
type State struct {
	ProcessedOrigin map[string]struct{}
	ProcessedMirror map[string]struct{}
}

// NewState returns an empty state ready for use.
func NewState() *State {
	return &State{
		ProcessedOrigin: make(map[string]struct{}),
		ProcessedMirror: make(map[string]struct{}),
	}
}

// MarkOrigin records an origin task as processed.
func (s *State) MarkOrigin(id string) {
	s.ProcessedOrigin[id] = struct{}{}
}

// MarkMirror records a mirror task as processed.
func (s *State) MarkMirror(id string) {
	s.ProcessedMirror[id] = struct{}{}
}

// OriginProcessed reports whether an origin task has been processed.
func (s *State) OriginProcessed(id string) bool {
	_, ok := s.ProcessedOrigin[id]
	return ok
}

// MirrorProcessed reports whether a mirror task has been processed.
func (s *State) MirrorProcessed(id string) bool {
	_, ok := s.ProcessedMirror[id]
	return ok
}

// stateDoc is the serialized form. IDs are sorted so repeated saves of
// the same state produce identical bytes.
type stateDoc struct {
	ProcessedOriginTasks []string `json:"processed_origin_tasks"`
	ProcessedMirrorTasks []string `json:"processed_mirror_tasks"`
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateDoc{
		ProcessedOriginTasks: sortedKeys(s.ProcessedOrigin),
		ProcessedMirrorTasks: sortedKeys(s.ProcessedMirror),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*s = *NewState()
	for _, id := range doc.ProcessedOriginTasks {
		s.ProcessedOrigin[id] = struct{}{}
	}
	for _, id := range doc.ProcessedMirrorTasks {
		s.ProcessedMirror[id] = struct{}{}
	}

	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
