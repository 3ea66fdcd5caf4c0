package imghash

import (
	"fmt"
	"image"
)

// Entity is an image plus its lazily computed hashes, one slot per
// algorithm. An entity owns its slots exclusively and is not safe for
// concurrent use.
type Entity struct {
	ID string

	img      image.Image
	released bool

	slots        [numAlgorithms]Blob
	computations int
}

func NewEntity(id string, img image.Image) *Entity {
	return &Entity{ID: id, img: img}
}

// NewCachedEntity builds an entity from previously computed hashes only.
// Slots missing from blobs can not be computed later.
func NewCachedEntity(id string, blobs map[Algorithm]Blob) (*Entity, error) {
	e := &Entity{ID: id, released: true}
	for alg, blob := range blobs {
		if err := e.Seed(alg, blob); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Seed fills a slot with an already known hash. Filled slots are left as is.
func (e *Entity) Seed(alg Algorithm, blob Blob) error {
	if !alg.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(alg))
	}
	if e.slots[alg] == nil && blob != nil {
		e.slots[alg] = blob
	}
	return nil
}

// Blob returns the cached hash for alg, if computed.
func (e *Entity) Blob(alg Algorithm) (Blob, bool) {
	if !alg.valid() || e.slots[alg] == nil {
		return nil, false
	}
	return e.slots[alg], true
}

// Blobs returns a copy of every computed slot.
func (e *Entity) Blobs() map[Algorithm]Blob {
	blobs := make(map[Algorithm]Blob, numAlgorithms)
	for i, blob := range e.slots {
		if blob != nil {
			blobs[Algorithm(i)] = blob
		}
	}
	return blobs
}

// Computations is the number of hash computations performed for this entity.
func (e *Entity) Computations() int {
	return e.computations
}

// Release drops the image reference. Already computed slots stay usable.
func (e *Entity) Release() {
	e.img = nil
	e.released = true
}

func (e *Entity) Released() bool {
	return e.released
}

func (e *Entity) usable() bool {
	return e.released || !emptyImage(e.img)
}

// ensure returns the slot for spec, computing and caching it on first use.
func (e *Entity) ensure(spec Spec) (Blob, error) {
	if blob := e.slots[spec.Algorithm]; blob != nil {
		return blob, nil
	}
	if emptyImage(e.img) {
		return nil, fmt.Errorf("%w: no image to compute %s hash of %q", ErrInvalidInput, spec.Algorithm, e.ID)
	}
	blob, err := spec.Compute(e.img)
	if err != nil {
		return nil, fmt.Errorf("computing %s hash: %w", spec.Algorithm, err)
	}
	e.computations++
	e.slots[spec.Algorithm] = blob
	return blob, nil
}

func emptyImage(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
