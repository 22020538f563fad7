package store

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// registryKey is the fixed document key holding the whole collection. The
// backend keeps the same whole-document semantics as the file store: Load
// fetches the one document, Save upserts it entirely.
const registryKey = "patients/registry"

// CouchbaseStore persists the document under a single key in the bucket's
// default collection.
type CouchbaseStore struct {
	cluster *gocb.Cluster
	bucket  *gocb.Bucket
}

// NewCouchbaseStore connects to Couchbase using the COUCHBASE_* environment
// variables and waits for the bucket to be ready for KV operations.
func NewCouchbaseStore() (*CouchbaseStore, error) {
	cbURL := getEnv("COUCHBASE_URL", "couchbase://patientms-db")
	user := getEnv("COUCHBASE_USERNAME", "patientms_user")
	pass := getEnv("COUCHBASE_PASSWORD", "password")
	bucketName := getEnv("COUCHBASE_BUCKET", "patientms")

	log.Info().
		Str("url", cbURL).
		Str("bucket", bucketName).
		Msg("Creating Couchbase connection")

	cluster, err := gocb.Connect(cbURL, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{Username: user, Password: pass},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Couchbase cluster")
		return nil, fmt.Errorf("connect cluster: %w", err)
	}

	bucket := cluster.Bucket(bucketName)
	err = bucket.WaitUntilReady(30*time.Second, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue},
	})
	if err != nil {
		log.Error().Err(err).Msg("Couchbase bucket not ready")
		return nil, fmt.Errorf("bucket not ready: %w", err)
	}

	log.Info().Msg("Couchbase connection created successfully")
	return &CouchbaseStore{cluster: cluster, bucket: bucket}, nil
}

// Load fetches the registry document and decodes it into v. A bucket
// without the document yet is a storage error, same as a missing file.
func (cs *CouchbaseStore) Load(ctx context.Context, v any) error {
	collection := cs.bucket.DefaultCollection()

	result, err := collection.Get(registryKey, &gocb.GetOptions{Context: ctx})
	if err != nil {
		log.Error().Err(err).Str("key", registryKey).Msg("Failed to get registry document")
		return fmt.Errorf("%w: get %s: %v", ErrStorage, registryKey, err)
	}

	if err := result.Content(v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrStorage, registryKey, err)
	}
	return nil
}

// Save upserts the full document under the registry key.
func (cs *CouchbaseStore) Save(ctx context.Context, v any) error {
	collection := cs.bucket.DefaultCollection()

	if _, err := collection.Upsert(registryKey, v, &gocb.UpsertOptions{Context: ctx}); err != nil {
		log.Error().Err(err).Str("key", registryKey).Msg("Failed to upsert registry document")
		return fmt.Errorf("%w: upsert %s: %v", ErrStorage, registryKey, err)
	}

	log.Debug().Str("key", registryKey).Msg("Registry document saved")
	return nil
}

// Close closes the Couchbase connection.
func (cs *CouchbaseStore) Close() error {
	if cs.cluster != nil {
		return cs.cluster.Close(nil)
	}
	return nil
}
