// Package storage persists hash caches and scan results in a bbolt file.
package storage

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const dbFileName = "data.db"

func New(dir string) (*Storage, error) {
	dbPath := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database file: %w", err)
	}
	s := Storage{db}
	if err = s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing buckets: %w", err)
	}
	return &s, nil
}

type Storage struct {
	db *bolt.DB
}

func (s *Storage) Close() error {
	return s.db.Close()
}
