package storage

import (
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	hashesBucket = "hashes"
	scansBucket  = "scans"
)

var bucketNames = []string{
	hashesBucket,
	scansBucket,
}

func (s *Storage) initBuckets() error {
	logrus.Debug("Initializing buckets")
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range bucketNames {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}
