package keyframe

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelComparator treats the red channel of the top-left pixel as the frame
// label. Frames are similar when their labels differ by at most tolerance.
func labelComparator(t *testing.T, tolerance float64) *imghash.Comparator {
	t.Helper()
	cmp, err := imghash.NewComparator(imghash.Spec{
		Algorithm: imghash.AverageHash,
		Compute: func(img image.Image) (imghash.Blob, error) {
			r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
			return imghash.Blob{uint8(r >> 8)}, nil
		},
		Distance: func(a, b imghash.Blob) (float64, error) {
			return math.Abs(float64(a[0]) - float64(b[0])), nil
		},
		Threshold: tolerance,
		Direction: imghash.AtMost,
	})
	require.NoError(t, err)
	return cmp
}

func frame(label uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: label, A: 255})
		}
	}
	return img
}

type sliceSource struct {
	frames []image.Image
	pos    int
	err    error
}

func labels(ls ...uint8) *sliceSource {
	src := &sliceSource{}
	for _, l := range ls {
		src.frames = append(src.frames, frame(l))
	}
	return src
}

func (s *sliceSource) Next() (image.Image, error) {
	if s.pos == len(s.frames) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	img := s.frames[s.pos]
	s.pos++
	return img, nil
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		labels    []uint8
		tolerance float64
		want      []int
	}{
		{"single frame", []uint8{7}, 0, []int{0}},
		{"runs", []uint8{1, 1, 1, 2, 2, 3}, 0, []int{1, 3, 5}},
		{"two frame run picks lower median", []uint8{4, 4, 9, 9, 9, 9}, 0, []int{0, 3}},
		{"chained similarity", []uint8{10, 11, 12, 13, 14, 50}, 1, []int{2, 5}},
		{"run returns after a break", []uint8{1, 1, 2, 1, 1}, 0, []int{0, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(labelComparator(t, tt.tolerance), labels(tt.labels...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAllSimilar(t *testing.T) {
	for n := 1; n <= 9; n++ {
		ls := make([]uint8, n)
		got, err := Extract(labelComparator(t, 0), labels(ls...))
		require.NoError(t, err)
		assert.Equal(t, []int{(n - 1) / 2}, got, "n=%d", n)
	}
}

func TestExtractAllDissimilar(t *testing.T) {
	const n = 7
	ls := make([]uint8, n)
	want := make([]int, n)
	for i := range ls {
		ls[i] = uint8(i * 10)
		want[i] = i
	}
	got, err := Extract(labelComparator(t, 0), labels(ls...))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExtractEmptyStream(t *testing.T) {
	got, err := Extract(labelComparator(t, 0), labels())
	assert.ErrorIs(t, err, ErrEmptyStream)
	assert.Nil(t, got)
}

func TestExtractSourceError(t *testing.T) {
	src := labels(1, 1)
	src.err = errors.New("broken pipe")
	_, err := Extract(labelComparator(t, 0), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading frame 2")
}

func TestExtractInvalidFrame(t *testing.T) {
	src := labels(1)
	src.frames = append(src.frames, nil)
	_, err := Extract(labelComparator(t, 0), src)
	assert.ErrorIs(t, err, imghash.ErrInvalidInput)
}

func TestExtractorLifecycle(t *testing.T) {
	var seen []int
	x := New(labelComparator(t, 0), WithObserver(func(index int) {
		seen = append(seen, index)
	}))

	require.NoError(t, x.Push(frame(1)))
	require.NoError(t, x.Push(frame(1)))
	require.NoError(t, x.Push(frame(2)))
	assert.Equal(t, 3, x.Frames())
	assert.Equal(t, []int{0, 1, 2}, seen)

	got, err := x.Close()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)

	assert.ErrorIs(t, x.Push(frame(3)), ErrClosed)
	_, err = x.Close()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestExtractorReleasesFrames(t *testing.T) {
	x := New(labelComparator(t, 0))
	require.NoError(t, x.Push(frame(1)))
	require.NotNil(t, x.prev)
	assert.True(t, x.prev.Released())
	_, ok := x.prev.Blob(imghash.AverageHash)
	assert.True(t, ok)
}

func TestResolveEmptyCluster(t *testing.T) {
	x := New(labelComparator(t, 0))
	assert.ErrorIs(t, x.resolve(), ErrEmptyCluster)
	assert.Empty(t, x.keyFrames)
}

func TestClusterMedian(t *testing.T) {
	tests := []struct {
		first, last, want int
	}{
		{0, 0, 0},
		{0, 1, 0},
		{0, 2, 1},
		{3, 8, 5},
		{math.MaxInt - 2, math.MaxInt, math.MaxInt - 1},
	}
	for _, tt := range tests {
		c := cluster{first: tt.first, last: tt.last, size: tt.last - tt.first + 1}
		assert.Equal(t, tt.want, c.median(), "[%d, %d]", tt.first, tt.last)
	}
}
