package imghash

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when an entity has no usable image.
	ErrInvalidInput = errors.New("invalid input")

	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrMalformedBlob    = errors.New("malformed hash blob")
	ErrInvalidSpec      = errors.New("invalid algorithm spec")
)

func errBlobSize(want int, got ...int) error {
	for _, n := range got {
		if n != want {
			return fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedBlob, want, n)
		}
	}
	return nil
}
