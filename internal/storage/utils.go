package storage

import (
	"errors"

	bolt "go.etcd.io/bbolt"
)

// getNested copies every key of the nested bucket key inside bucket.
// A missing nested bucket yields a nil map.
func (s *Storage) getNested(bucket string, key []byte) (values map[string][]byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		nested := b.Bucket(key)
		if nested == nil {
			return nil
		}
		values = make(map[string][]byte)
		return nested.ForEach(func(k, v []byte) error {
			if v != nil {
				values[string(k)] = append([]byte(nil), v...)
			}
			return nil
		})
	})
	return
}

// replaceNested drops the nested bucket key and recreates it with values.
func (s *Storage) replaceNested(bucket string, key []byte, values map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if err := b.DeleteBucket(key); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		nested, err := b.CreateBucket(key)
		if err != nil {
			return err
		}
		for k, v := range values {
			if err := nested.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// nestedKeys lists the nested bucket names directly under bucket.
func (s *Storage) nestedKeys(bucket string) (keys [][]byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			if v == nil {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
	})
	return
}
