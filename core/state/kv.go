package state

import (
	"errors"

	"nftstaking/storage"
)

// KV is the byte-level store the manager reads and writes. Get returns a nil
// value without error when the key is absent.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// DatabaseKV exposes a storage.Database as a KV.
type DatabaseKV struct {
	db storage.Database
}

// NewDatabaseKV wraps db.
func NewDatabaseKV(db storage.Database) *DatabaseKV {
	return &DatabaseKV{db: db}
}

func (d *DatabaseKV) Get(key []byte) ([]byte, error) {
	value, err := d.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (d *DatabaseKV) Put(key, value []byte) error { return d.db.Put(key, value) }

func (d *DatabaseKV) Delete(key []byte) error { return d.db.Delete(key) }
