package imghash

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

const (
	averageKind    = goimagehash.AHash
	perceptualKind = goimagehash.PHash

	bitHashSize = 8
)

func computeAverage(img image.Image) (Blob, error) {
	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return nil, fmt.Errorf("calculating average hash: %w", err)
	}
	return encodeBitHash(hash), nil
}

func computePerceptual(img image.Image) (Blob, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("calculating perception hash: %w", err)
	}
	return encodeBitHash(hash), nil
}

func encodeBitHash(hash *goimagehash.ImageHash) Blob {
	b := make(Blob, bitHashSize)
	binary.BigEndian.PutUint64(b, hash.GetHash())
	return b
}

func decodeBitHash(b Blob, kind goimagehash.Kind) (*goimagehash.ImageHash, error) {
	if len(b) != bitHashSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedBlob, bitHashSize, len(b))
	}
	return goimagehash.NewImageHash(binary.BigEndian.Uint64(b), kind), nil
}

// hammingDistance counts differing bits between two 64-bit hashes of the same kind.
func hammingDistance(kind goimagehash.Kind) func(a, b Blob) (float64, error) {
	return func(a, b Blob) (float64, error) {
		ha, err := decodeBitHash(a, kind)
		if err != nil {
			return 0, err
		}
		hb, err := decodeBitHash(b, kind)
		if err != nil {
			return 0, err
		}
		dist, err := ha.Distance(hb)
		if err != nil {
			return 0, fmt.Errorf("calculating distance: %w", err)
		}
		return float64(dist), nil
	}
}
