// Package persistence stores the last received registration snapshot,
// so a client can rebuild device state before its first registration
// round trip completes.
package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wdm-protocol/wdm-go/pkg/wire"
)

// StateVersion is the current version of the snapshot file format.
const StateVersion = 1

// StoredSnapshot is the on-disk envelope around a snapshot.
type StoredSnapshot struct {
	// Version is the snapshot file format version.
	Version int `json:"version"`

	// SavedAt is when the snapshot was saved.
	SavedAt time.Time `json:"saved_at"`

	// Snapshot is the registration payload as last received.
	Snapshot wire.Snapshot `json:"snapshot"`
}

// SnapshotStore manages persistence of a device snapshot to a JSON file.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewSnapshotStore creates a snapshot store at the given path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Save persists a snapshot to disk.
func (s *SnapshotStore) Save(snapshot wire.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	stored := StoredSnapshot{
		Version:  StateVersion,
		SavedAt:  time.Now(),
		Snapshot: snapshot,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the stored snapshot from disk.
// Returns nil, nil if the file doesn't exist (no snapshot yet).
func (s *SnapshotStore) Load() (wire.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stored StoredSnapshot
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return stored.Snapshot, nil
}

// Clear removes the stored snapshot. Clearing an absent file is a
// no-op.
func (s *SnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
