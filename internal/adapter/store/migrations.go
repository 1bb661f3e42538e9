package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchema = []byte("schema")

// SchemaInfo records how an index was provisioned.
type SchemaInfo struct {
	Version   int    `json:"version"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

func readSchemaInfo(tx *bbolt.Tx) (*SchemaInfo, error) {
	data := tx.Bucket(bucketMeta).Get(keySchema)
	if data == nil {
		return nil, nil
	}
	var info SchemaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("corrupt schema info: %w", err)
	}
	return &info, nil
}

// provision writes the schema info for a fresh index or checks it against
// an existing one. It reports whether the index was newly provisioned.
func provision(db *bbolt.DB, dimension int, metric string) (bool, error) {
	created := false
	err := db.Update(func(tx *bbolt.Tx) error {
		info, err := readSchemaInfo(tx)
		if err != nil {
			return err
		}

		if info == nil {
			created = true
			data, err := json.Marshal(SchemaInfo{
				Version:   CurrentSchemaVersion,
				Dimension: dimension,
				Metric:    metric,
			})
			if err != nil {
				return err
			}
			return tx.Bucket(bucketMeta).Put(keySchema, data)
		}

		if info.Version > CurrentSchemaVersion {
			return fmt.Errorf("%w: index created by newer version (v%d > v%d)", domain.ErrInvalidConfig, info.Version, CurrentSchemaVersion)
		}
		if info.Dimension != dimension {
			return fmt.Errorf("index provisioned for another model: %w", domain.DimensionError(info.Dimension, dimension))
		}
		if info.Metric != metric {
			return fmt.Errorf("%w: index uses metric %q, configured %q", domain.ErrDimensionMismatch, info.Metric, metric)
		}
		return nil
	})
	return created, err
}

// SchemaInfo returns the provisioning record of the open index.
func (s *BoltVectorStore) SchemaInfo() (*SchemaInfo, error) {
	var info *SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		info, err = readSchemaInfo(tx)
		return err
	})
	return info, err
}

// Clear removes every stored vector but keeps the provisioning record.
func (s *BoltVectorStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketVectors)
		return err
	})
	if err != nil {
		return err
	}
	s.vectors = make(map[string]vectorEntry)
	return nil
}
