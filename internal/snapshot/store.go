package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Store writes timestamped JSON snapshots of retrieved data.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir. The directory is created on
// first save.
func NewStore(dir string, logger *zap.Logger) *Store {
	if dir == "" {
		dir = "data"
	}
	return &Store{dir: dir, logger: logger}
}

// Save marshals v into <dir>/<prefix>_<timestamp>.json and returns the
// written path.
func (s *Store) Save(prefix string, v interface{}) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.logger.Info("Snapshot saved", zap.String("path", path))
	return path, nil
}
