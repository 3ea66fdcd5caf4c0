package storage

import (
	"fmt"

	"github.com/pomo-mondreganto/lookalike/internal/imghash"
)

const fingerprintKey = "fingerprint"

// LoadHashes returns the cached hashes of path if they were stored for the
// same fingerprint, and nil otherwise.
func (s *Storage) LoadHashes(path, fingerprint string) (map[imghash.Algorithm]imghash.Blob, error) {
	values, err := s.getNested(hashesBucket, []byte(path))
	if err != nil {
		return nil, fmt.Errorf("reading hashes of %s: %w", path, err)
	}
	if values == nil || string(values[fingerprintKey]) != fingerprint {
		return nil, nil
	}
	blobs := make(map[imghash.Algorithm]imghash.Blob, len(values)-1)
	for k, v := range values {
		if k == fingerprintKey {
			continue
		}
		alg, err := imghash.ParseAlgorithm(k)
		if err != nil {
			return nil, fmt.Errorf("reading hashes of %s: %w", path, err)
		}
		blobs[alg] = v
	}
	return blobs, nil
}

// SaveHashes replaces the cached hashes of path.
func (s *Storage) SaveHashes(path, fingerprint string, blobs map[imghash.Algorithm]imghash.Blob) error {
	values := make(map[string][]byte, len(blobs)+1)
	values[fingerprintKey] = []byte(fingerprint)
	for alg, blob := range blobs {
		values[alg.String()] = blob
	}
	if err := s.replaceNested(hashesBucket, []byte(path), values); err != nil {
		return fmt.Errorf("saving hashes of %s: %w", path, err)
	}
	return nil
}
