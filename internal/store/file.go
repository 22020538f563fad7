package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileStore persists the whole document as one human-readable JSON file.
// There is no locking: concurrent writers race and the last Save wins.
type FileStore struct {
	path string
}

// NewFileStore creates a file store for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and parses the entire file. A missing or malformed file is
// fatal and propagated wrapped in ErrStorage.
func (fs *FileStore) Load(ctx context.Context, v any) error {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		log.Error().Err(err).Str("path", fs.path).Msg("Failed to read data file")
		return fmt.Errorf("%w: read %s: %v", ErrStorage, fs.path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("path", fs.path).Msg("Failed to parse data file")
		return fmt.Errorf("%w: parse %s: %v", ErrStorage, fs.path, err)
	}

	return nil
}

// Save serializes the full document and replaces the file. The write goes
// through a temp file and rename so the file never holds partial content.
func (fs *FileStore) Save(ctx context.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrStorage, err)
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		log.Error().Err(err).Str("path", fs.path).Msg("Failed to create temp file")
		return fmt.Errorf("%w: create temp: %v", ErrStorage, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write temp: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close temp: %v", ErrStorage, err)
	}

	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		os.Remove(tmp.Name())
		log.Error().Err(err).Str("path", fs.path).Msg("Failed to replace data file")
		return fmt.Errorf("%w: replace %s: %v", ErrStorage, fs.path, err)
	}

	log.Debug().Str("path", fs.path).Int("bytes", len(data)).Msg("Data file saved")
	return nil
}
