package store

import (
	"fmt"
	"log"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
)

// Open opens (or creates) the bolt index at path and provisions it for
// vectors of the given dimension. An index provisioned with a different
// dimension or metric is rejected with domain.ErrDimensionMismatch.
func Open(path string, dimension int, metric string) (*BoltVectorStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidConfig, dimension)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bolt db: %v", domain.ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	created, err := provision(db, dimension, metric)
	if err != nil {
		db.Close()
		return nil, err
	}
	if created {
		log.Printf("[Store] Created index %s (dimension=%d, metric=%s)", path, dimension, metric)
	}

	st, err := newBoltVectorStore(db, dimension)
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}
