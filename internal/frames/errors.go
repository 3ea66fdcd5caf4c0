package frames

import "errors"

var (
	ErrNoFrames    = errors.New("found no frames to process")
	ErrNoKeyFrames = errors.New("no key frames found")
	ErrTruncated   = errors.New("reached end of stream before end of extraction")
	ErrNotSorted   = errors.New("key frame indices are not strictly increasing")
)
