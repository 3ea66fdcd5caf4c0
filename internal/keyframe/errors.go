package keyframe

import "errors"

var (
	// ErrEmptyStream is returned when a stream ends before its first frame.
	ErrEmptyStream = errors.New("found no frames to process")

	// ErrEmptyCluster means a cluster was resolved without members. It is a
	// logic error in the extractor, never a property of the input.
	ErrEmptyCluster = errors.New("resolving empty cluster")

	ErrClosed = errors.New("extractor is closed")
)
