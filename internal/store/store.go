package store

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrStorage marks failures of the persistence layer itself (missing or
// unparsable persisted state). Not recovered; callers surface it as an
// internal error.
var ErrStorage = errors.New("storage error")

// Store reads and writes the entire persisted document. It has no
// knowledge of the record schema: Load and Save operate on whatever value
// the caller supplies, like json.Unmarshal/Marshal do.
type Store interface {
	Load(ctx context.Context, v any) error
	Save(ctx context.Context, v any) error
}

// New selects a backend from the environment. The JSON file backend is the
// default; STORE_BACKEND=couchbase switches to the document store.
func New() (Store, error) {
	switch backend := getEnv("STORE_BACKEND", "file"); backend {
	case "file":
		return NewFileStore(getEnv("PATIENTS_FILE", "patients.json")), nil
	case "couchbase":
		return NewCouchbaseStore()
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
}

// getEnv retrieves environment variable with fallback default
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
