package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"stableJoin/internal/model"
)

// SnapshotFileStore persists pool snapshots to a JSON file so joins can be
// built offline against a pinned snapshot.
type SnapshotFileStore struct {
	path string
}

func NewSnapshotFileStore(path string) *SnapshotFileStore {
	return &SnapshotFileStore{path: path}
}

func (s *SnapshotFileStore) Load() (model.PoolSnapshot, bool, error) {
	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return model.PoolSnapshot{}, false, fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot model.PoolSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}

	return snapshot, true, nil
}

func (s *SnapshotFileStore) Save(snapshot model.PoolSnapshot) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	return nil
}
