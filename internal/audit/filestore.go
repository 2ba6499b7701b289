package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docveil/docveil/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStore persists audit records as standalone JSON files named by source
// basename, timestamp, and a short random suffix. The suffix avoids
// collisions when a batch processes files with the same name within the
// same second.
type FileStore struct {
	dir    string
	logger *logger.Logger
}

// NewFileStore creates a file-based audit store rooted at dir.
func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{dir: dir, logger: log}
}

// Write persists the record and returns the written file path. The storage
// directory is created if absent.
func (s *FileStore) Write(ctx context.Context, record *Record) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	suffix := uuid.NewString()[:8]
	name := fmt.Sprintf("audit_log_%s_%d_%s.json",
		filepath.Base(record.Source), record.Timestamp.Unix(), suffix)
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit record: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audit record: %w", err)
	}

	s.logger.Info("Audit record written",
		zap.String("path", path),
		zap.Int("total_items", record.TotalItems),
	)

	return path, nil
}
