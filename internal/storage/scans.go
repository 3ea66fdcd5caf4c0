package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var ErrScanNotFound = errors.New("scan not found")

const (
	rootKey    = "root"
	createdKey = "created"
	groupsKey  = "groups"
)

// Scan is the saved outcome of one deduplication run. Each group lists file
// paths with the anchor last.
type Scan struct {
	ID      uuid.UUID
	Root    string
	Created time.Time
	Groups  [][]string
}

// SaveScan stores scan under a new id, which is returned.
func (s *Storage) SaveScan(scan Scan) (uuid.UUID, error) {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	groups, err := json.Marshal(scan.Groups)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding groups: %w", err)
	}
	values := map[string][]byte{
		rootKey:    []byte(scan.Root),
		createdKey: []byte(strconv.FormatInt(scan.Created.UnixNano(), 10)),
		groupsKey:  groups,
	}
	if err := s.replaceNested(scansBucket, []byte(scan.ID.String()), values); err != nil {
		return uuid.Nil, fmt.Errorf("saving scan: %w", err)
	}
	return scan.ID, nil
}

func (s *Storage) GetScan(id uuid.UUID) (*Scan, error) {
	values, err := s.getNested(scansBucket, []byte(id.String()))
	if err != nil {
		return nil, fmt.Errorf("reading scan: %w", err)
	}
	if values == nil {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	return decodeScan(id, values)
}

// ListScans returns every saved scan, newest first.
func (s *Storage) ListScans() ([]*Scan, error) {
	keys, err := s.nestedKeys(scansBucket)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	scans := make([]*Scan, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.ParseBytes(key)
		if err != nil {
			return nil, fmt.Errorf("parsing scan id %q: %w", key, err)
		}
		scan, err := s.GetScan(id)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	sort.Slice(scans, func(i, j int) bool {
		return scans[i].Created.After(scans[j].Created)
	})
	return scans, nil
}

func decodeScan(id uuid.UUID, values map[string][]byte) (*Scan, error) {
	nano, err := strconv.ParseInt(string(values[createdKey]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing scan time: %w", err)
	}
	scan := Scan{
		ID:      id,
		Root:    string(values[rootKey]),
		Created: time.Unix(0, nano),
	}
	if err := json.Unmarshal(values[groupsKey], &scan.Groups); err != nil {
		return nil, fmt.Errorf("decoding groups: %w", err)
	}
	return &scan, nil
}
