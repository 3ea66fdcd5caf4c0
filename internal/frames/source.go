// Package frames provides ordered frame streams read from videos or image
// sequences, and writes selected frames back to disk.
package frames

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultFPS is assumed when a stream reports no usable frame rate.
const DefaultFPS = 25.0

// Source yields decoded frames in order and io.EOF after the last one.
type Source interface {
	Next() (image.Image, error)
	Close() error
}

// Timestamp renders the presentation time of frame index as HH-mm-ss-zzz.
func Timestamp(index int, fps float64) string {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		fps = DefaultFPS
	}
	ms := int64(math.Round(float64(index) * 1000 / fps))
	d := time.Duration(ms) * time.Millisecond
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d-%02d-%02d-%03d", h, m, s, d/time.Millisecond)
}

// RunDirName names the output directory of one extraction started at t.
func RunDirName(t time.Time) string {
	return t.Format("2006-01-02T15-04-05") + fmt.Sprintf("-%03d", t.Nanosecond()/int(time.Millisecond))
}

// SaveKeyFrames reads src once and writes the frames listed in indices as
// JPEG files into dir. Indices must be strictly increasing. progress, if
// set, is called after every written frame.
func SaveKeyFrames(
	src Source,
	indices []int,
	dir string,
	name func(index int) string,
	progress func(done, total int),
) error {
	if len(indices) == 0 {
		return ErrNoKeyFrames
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			return fmt.Errorf("%w: %d after %d", ErrNotSorted, indices[i], indices[i-1])
		}
	}

	pos := 0
	for done, want := range indices {
		var img image.Image
		for ; pos <= want; pos++ {
			frame, err := src.Next()
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: key frame %d, stream has %d frames", ErrTruncated, want, pos)
			}
			if err != nil {
				return fmt.Errorf("reading frame %d: %w", pos, err)
			}
			img = frame
		}
		path := filepath.Join(dir, name(want)+".jpg")
		if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
			return fmt.Errorf("saving key frame %d: %w", want, err)
		}
		logrus.Debugf("Saved key frame %d to %s", want, path)
		if progress != nil {
			progress(done+1, len(indices))
		}
	}
	return nil
}
