package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"github.com/khanhnv2901/moodscan/internal/shared/security"
)

// listFile stores a JSON list of T in a single file that is only ever replaced whole.
type listFile[T any] struct {
	name string
	path string
	mu   sync.RWMutex
}

func newListFile[T any](dataDir, filename string) (*listFile[T], error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dataDir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, filename)
	if err := security.CheckDataPath(path); err != nil {
		return nil, err
	}
	return &listFile[T]{name: filename, path: path}, nil
}

func (f *listFile[T]) load() ([]T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.read()
}

func (f *listFile[T]) read() ([]T, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sharedErrors.ErrDeserializationFailed, f.path, err)
	}
	return items, nil
}

// replace renames the current file to its backup name and writes items in its
// place. Nothing is touched when items equal the stored list.
func (f *listFile[T]) replace(items []T) (snapshot.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	change := snapshot.Change{Name: f.name, After: len(items)}
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return change, fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}

	current, err := f.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return change, err
	default:
		change.Before = len(current)
		if current == nil {
			current = []T{}
		}
		stored, err := json.MarshalIndent(current, "", "  ")
		if err == nil && bytes.Equal(stored, data) {
			change.Unchanged = true
			return change, nil
		}

		change.Backup = f.path + consts.BackupSuffix
		if err := os.Rename(f.path, change.Backup); err != nil {
			return change, fmt.Errorf("failed to back up %s: %w", f.name, err)
		}
	}

	if err := writeFileAtomic(f.path, data); err != nil {
		return change, err
	}
	return change, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
