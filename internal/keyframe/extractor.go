// Package keyframe collapses runs of visually equal consecutive frames into
// one representative key frame each, in a single forward pass.
package keyframe

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/sirupsen/logrus"
)

type state int

const (
	idle state = iota
	accumulating
	closed
)

// Source yields decoded frames in order and io.EOF after the last one.
type Source interface {
	Next() (image.Image, error)
}

type Option func(*Extractor)

// WithObserver registers a callback invoked with each accepted frame index.
func WithObserver(fn func(index int)) Option {
	return func(x *Extractor) {
		x.observer = fn
	}
}

func New(cmp *imghash.Comparator, opts ...Option) *Extractor {
	x := &Extractor{
		cmp:    cmp,
		logger: logrus.WithField("component", "keyframe"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extractor is a streaming state machine over frames. It keeps the open
// cluster bounds and the hashes of the previous frame, never the frames
// themselves.
type Extractor struct {
	cmp      *imghash.Comparator
	logger   *logrus.Entry
	observer func(index int)

	state     state
	next      int
	current   cluster
	prev      *imghash.Entity
	keyFrames []int
}

// Extract runs the whole stream through a fresh extractor and returns the
// key frame indices.
func Extract(cmp *imghash.Comparator, src Source, opts ...Option) ([]int, error) {
	x := New(cmp, opts...)
	for {
		img, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading frame %d: %w", x.next, err)
		}
		if err := x.Push(img); err != nil {
			return nil, err
		}
	}
	return x.Close()
}

// Push feeds the frame with the next index.
func (x *Extractor) Push(img image.Image) error {
	if x.state == closed {
		return ErrClosed
	}
	index := x.next
	frame := imghash.NewEntity(strconv.Itoa(index), img)

	switch x.state {
	case idle:
		if err := x.cmp.Complete(frame); err != nil {
			return fmt.Errorf("hashing frame %d: %w", index, err)
		}
		x.current.open(index)
		x.state = accumulating
	case accumulating:
		similar, err := x.cmp.Similar(frame, x.prev)
		if err != nil {
			return fmt.Errorf("comparing frame %d with previous: %w", index, err)
		}
		if err := x.cmp.Complete(frame); err != nil {
			return fmt.Errorf("hashing frame %d: %w", index, err)
		}
		if similar {
			x.current.add(index)
		} else {
			if err := x.resolve(); err != nil {
				return err
			}
			x.current.open(index)
		}
	}

	frame.Release()
	x.prev = frame
	x.next++
	if x.observer != nil {
		x.observer(index)
	}
	return nil
}

// Close resolves the open cluster and returns all key frame indices.
func (x *Extractor) Close() ([]int, error) {
	switch x.state {
	case closed:
		return nil, ErrClosed
	case idle:
		x.state = closed
		return nil, ErrEmptyStream
	}
	if err := x.resolve(); err != nil {
		return nil, err
	}
	x.state = closed
	x.prev = nil
	x.logger.Debugf("Located %d key frames in %d frames", len(x.keyFrames), x.next)
	return x.keyFrames, nil
}

// Frames is the number of frames pushed so far.
func (x *Extractor) Frames() int {
	return x.next
}

func (x *Extractor) resolve() error {
	if x.current.empty() {
		return ErrEmptyCluster
	}
	key := x.current.median()
	x.logger.Debugf("Frames %d-%d collapse into key frame %d", x.current.first, x.current.last, key)
	x.keyFrames = append(x.keyFrames, key)
	x.current.clear()
	return nil
}
