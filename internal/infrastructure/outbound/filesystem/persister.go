// Package filesystem implements file-mode persistence and change
// notification for the expectation list: an atomic pretty-printed JSON
// write, and an fsnotify-backed watcher for out-of-band edits.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// FilePersister persists the expectation list as pretty-printed JSON at a
// fixed path, writing atomically via a temp file + rename so a reader (or
// the watcher's own fsnotify stream) never observes a half-written file.
type FilePersister struct {
	path string
}

// NewFilePersister returns a FilePersister bound to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Save writes list to the configured path atomically.
func (p *FilePersister) Save(_ context.Context, list []expectation.Expectation) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal expectations: %w", err)
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".expectations-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Load reads and parses the expectations file. A missing file is not an
// error: it yields an empty list so a first-run server starts clean.
func (p *FilePersister) Load(_ context.Context) ([]expectation.Expectation, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []expectation.Expectation{}, nil
		}
		return nil, fmt.Errorf("read expectations file: %w", err)
	}

	var list []expectation.Expectation
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse expectations file: %w", err)
	}
	return list, nil
}
