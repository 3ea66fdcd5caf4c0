package imghash

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillImage(w, h int, fn func(x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fn(x, y))
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	return fillImage(w, h, func(x, y int) color.NRGBA {
		return color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 90, A: 255}
	})
}

func checkerboard(w, h, cell int) *image.NRGBA {
	return fillImage(w, h, func(x, y int) color.NRGBA {
		if (x/cell+y/cell)%2 == 0 {
			return color.NRGBA{R: 240, G: 240, B: 240, A: 255}
		}
		return color.NRGBA{R: 10, G: 30, B: 200, A: 255}
	})
}

func stripes(w, h int) *image.NRGBA {
	return fillImage(w, h, func(x, y int) color.NRGBA {
		if y%16 < 8 {
			return color.NRGBA{R: 200, G: 20, B: 20, A: 255}
		}
		return color.NRGBA{R: 20, G: 200, B: 20, A: 255}
	})
}

func disk(w, h int) *image.NRGBA {
	return fillImage(w, h, func(x, y int) color.NRGBA {
		dx, dy := x-22, y-38
		if dx*dx+dy*dy <= 196 {
			return color.NRGBA{R: 250, G: 210, B: 40, A: 255}
		}
		return color.NRGBA{R: 20, G: 30, B: 90, A: 255}
	})
}

func ring(w, h int) *image.NRGBA {
	return fillImage(w, h, func(x, y int) color.NRGBA {
		dx, dy := x-40, y-24
		if r := dx*dx + dy*dy; r >= 64 && r <= 256 {
			return color.NRGBA{R: 30, G: 200, B: 60, A: 255}
		}
		return color.NRGBA{R: 10, G: 10, B: 10, A: 255}
	})
}

func bands(w, h int) *image.NRGBA {
	return fillImage(w, h, func(x, y int) color.NRGBA {
		if ((x+2*y)/11)%2 == 0 {
			return color.NRGBA{R: 200, G: 40, B: 160, A: 255}
		}
		return color.NRGBA{R: 220, G: 220, B: 180, A: 255}
	})
}

// fixedSpec returns a spec whose distance is always dist and counts its
// hash computations.
func fixedSpec(alg Algorithm, dist, threshold float64, dir Direction, calls *int) Spec {
	return Spec{
		Algorithm: alg,
		Compute: func(image.Image) (Blob, error) {
			if calls != nil {
				*calls++
			}
			return Blob{byte(alg), 0xaa}, nil
		},
		Distance: func(a, b Blob) (float64, error) {
			return dist, nil
		},
		Threshold: threshold,
		Direction: dir,
	}
}

func TestAlgorithmNames(t *testing.T) {
	for _, alg := range Algorithms() {
		parsed, err := ParseAlgorithm(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, parsed)
	}
	_, err := ParseAlgorithm("wavelet")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestDefaultSpecs(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 4)

	tests := []struct {
		alg       Algorithm
		threshold float64
		direction Direction
	}{
		{AverageHash, 15, AtMost},
		{PerceptualHash, 15, AtMost},
		{ColorMomentHash, 5.5, AtMost},
		{RadialVarianceHash, 0.708, AtLeast},
	}
	for i, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			assert.Equal(t, tt.alg, specs[i].Algorithm)
			assert.Equal(t, tt.threshold, specs[i].Threshold)
			assert.Equal(t, tt.direction, specs[i].Direction)
			assert.NotNil(t, specs[i].Compute)
			assert.NotNil(t, specs[i].Distance)
		})
	}
}

func TestSpecDecide(t *testing.T) {
	atMost := Spec{Threshold: 15, Direction: AtMost}
	assert.True(t, atMost.Decide(0))
	assert.True(t, atMost.Decide(15))
	assert.False(t, atMost.Decide(16))

	atLeast := Spec{Threshold: 0.708, Direction: AtLeast}
	assert.True(t, atLeast.Decide(1))
	assert.True(t, atLeast.Decide(0.708))
	assert.False(t, atLeast.Decide(0.7079))
	assert.False(t, atLeast.Decide(math.NaN()))
}

func TestNewComparatorValidation(t *testing.T) {
	_, err := NewComparator(
		fixedSpec(AverageHash, 0, 1, AtMost, nil),
		fixedSpec(AverageHash, 0, 1, AtMost, nil),
	)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewComparator(Spec{Algorithm: PerceptualHash})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewComparator(fixedSpec(Algorithm(9), 0, 1, AtMost, nil))
	assert.ErrorIs(t, err, ErrInvalidSpec)

	cmp, err := NewComparator()
	require.NoError(t, err)
	assert.Len(t, cmp.Specs(), 4)
}

func TestSimilarReflexive(t *testing.T) {
	cmp, err := NewComparator()
	require.NoError(t, err)

	for name, img := range map[string]image.Image{
		"gradient":     gradient(64, 48),
		"checkerboard": checkerboard(64, 64, 8),
		"stripes":      stripes(80, 60),
	} {
		t.Run(name, func(t *testing.T) {
			similar, err := cmp.Similar(NewEntity("a", img), NewEntity("b", img))
			require.NoError(t, err)
			assert.True(t, similar)

			e := NewEntity("self", img)
			similar, err = cmp.Similar(e, e)
			require.NoError(t, err)
			assert.True(t, similar)
		})
	}
}

func TestDistancesOfIdenticalImages(t *testing.T) {
	cmp, err := NewComparator()
	require.NoError(t, err)

	img := checkerboard(96, 64, 12)
	verdicts, err := cmp.Distances(NewEntity("a", img), NewEntity("b", img))
	require.NoError(t, err)
	require.Len(t, verdicts, 4)

	assert.Equal(t, 0.0, verdicts[0].Distance)
	assert.Equal(t, 0.0, verdicts[1].Distance)
	assert.Equal(t, 0.0, verdicts[2].Distance)
	assert.InDelta(t, 1.0, verdicts[3].Distance, 1e-9)
	for _, v := range verdicts {
		assert.True(t, v.Similar, v.Algorithm.String())
	}
}

func TestSimilarSymmetric(t *testing.T) {
	cmp, err := NewComparator()
	require.NoError(t, err)

	images := []image.Image{gradient(64, 64), checkerboard(64, 64, 4), stripes(64, 64)}
	for i := range images {
		for j := range images {
			ab, err := cmp.Similar(NewEntity("a", images[i]), NewEntity("b", images[j]))
			require.NoError(t, err)
			ba, err := cmp.Similar(NewEntity("b", images[j]), NewEntity("a", images[i]))
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "pair %d/%d", i, j)
		}
	}
}

func TestHashMemoized(t *testing.T) {
	calls := 0
	cmp, err := NewComparator(fixedSpec(AverageHash, 0, 1, AtMost, &calls))
	require.NoError(t, err)

	e := NewEntity("a", gradient(8, 8))
	first, err := cmp.Hash(e, AverageHash)
	require.NoError(t, err)
	second, err := cmp.Hash(e, AverageHash)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, e.Computations())

	_, err = cmp.Hash(e, RadialVarianceHash)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestHashMemoizedWithRealAlgorithms(t *testing.T) {
	cmp, err := NewComparator()
	require.NoError(t, err)

	e := NewEntity("a", stripes(40, 40))
	for _, alg := range Algorithms() {
		first, err := cmp.Hash(e, alg)
		require.NoError(t, err)
		second, err := cmp.Hash(e, alg)
		require.NoError(t, err)
		assert.Equal(t, first, second, alg.String())
	}
	assert.Equal(t, 4, e.Computations())
}

func TestRadialVarianceThresholdInclusive(t *testing.T) {
	specs := []Spec{
		fixedSpec(AverageHash, 16, 15, AtMost, nil),
		fixedSpec(PerceptualHash, 16, 15, AtMost, nil),
		fixedSpec(ColorMomentHash, 5.6, 5.5, AtMost, nil),
		fixedSpec(RadialVarianceHash, 0.708, 0.708, AtLeast, nil),
	}
	cmp, err := NewComparator(specs...)
	require.NoError(t, err)

	similar, err := cmp.Similar(NewEntity("a", gradient(8, 8)), NewEntity("b", gradient(8, 8)))
	require.NoError(t, err)
	assert.True(t, similar)

	specs[3] = fixedSpec(RadialVarianceHash, 0.7079, 0.708, AtLeast, nil)
	cmp, err = NewComparator(specs...)
	require.NoError(t, err)

	similar, err = cmp.Similar(NewEntity("a", gradient(8, 8)), NewEntity("b", gradient(8, 8)))
	require.NoError(t, err)
	assert.False(t, similar)
}

func TestSimilarShortCircuits(t *testing.T) {
	var first, second int
	cmp, err := NewComparator(
		fixedSpec(AverageHash, 3, 15, AtMost, &first),
		fixedSpec(PerceptualHash, 3, 15, AtMost, &second),
	)
	require.NoError(t, err)

	a := NewEntity("a", gradient(8, 8))
	b := NewEntity("b", gradient(8, 8))
	similar, err := cmp.Similar(a, b)
	require.NoError(t, err)
	assert.True(t, similar)
	assert.Equal(t, 2, first)
	assert.Equal(t, 0, second)

	_, ok := a.Blob(PerceptualHash)
	assert.False(t, ok)
}

func TestSimilarInvalidInput(t *testing.T) {
	calls := 0
	cmp, err := NewComparator(fixedSpec(AverageHash, 0, 1, AtMost, &calls))
	require.NoError(t, err)

	valid := NewEntity("valid", gradient(8, 8))
	tests := []struct {
		name string
		a, b *Entity
	}{
		{"nil image", NewEntity("nil", nil), valid},
		{"empty bounds", valid, NewEntity("empty", image.NewNRGBA(image.Rect(0, 0, 0, 0)))},
		{"nil entity", nil, valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cmp.Similar(tt.a, tt.b)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, valid.Computations())
	assert.Empty(t, valid.Blobs())
}

func TestReleasedEntity(t *testing.T) {
	cmp, err := NewComparator(
		fixedSpec(AverageHash, 20, 15, AtMost, nil),
		fixedSpec(PerceptualHash, 0, 15, AtMost, nil),
	)
	require.NoError(t, err)

	a := NewEntity("a", gradient(8, 8))
	require.NoError(t, cmp.Complete(a))
	a.Release()
	assert.True(t, a.Released())

	b := NewEntity("b", gradient(8, 8))
	similar, err := cmp.Similar(a, b)
	require.NoError(t, err)
	assert.True(t, similar)

	partial, err := NewCachedEntity("partial", map[Algorithm]Blob{AverageHash: {1}})
	require.NoError(t, err)
	_, err = cmp.Similar(partial, b)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSeedKeepsComputedSlot(t *testing.T) {
	e := NewEntity("a", gradient(8, 8))
	require.NoError(t, e.Seed(AverageHash, Blob{1}))
	require.NoError(t, e.Seed(AverageHash, Blob{2}))

	blob, ok := e.Blob(AverageHash)
	require.True(t, ok)
	assert.Equal(t, Blob{1}, blob)
	assert.ErrorIs(t, e.Seed(Algorithm(-1), Blob{1}), ErrUnknownAlgorithm)
}

func TestMalformedBlobs(t *testing.T) {
	_, err := hammingDistance(averageKind)(Blob{1, 2}, make(Blob, 8))
	assert.ErrorIs(t, err, ErrMalformedBlob)

	_, err = colorMomentDistance(make(Blob, 8), make(Blob, colorMomentLength*8))
	assert.ErrorIs(t, err, ErrMalformedBlob)

	_, err = radialVarianceDistance(make(Blob, radialHashSize), make(Blob, 3))
	assert.ErrorIs(t, err, ErrMalformedBlob)
}

func TestDefaultSpecsSeparateDistinctImages(t *testing.T) {
	cmp, err := NewComparator()
	require.NoError(t, err)

	images := map[string]image.Image{
		"disk":  disk(64, 64),
		"ring":  ring(64, 64),
		"bands": bands(64, 64),
	}
	tests := []struct{ a, b string }{
		{"disk", "ring"},
		{"disk", "bands"},
		{"ring", "bands"},
	}
	for _, tc := range tests {
		t.Run(tc.a+"/"+tc.b, func(t *testing.T) {
			verdicts, err := cmp.Distances(NewEntity(tc.a, images[tc.a]), NewEntity(tc.b, images[tc.b]))
			require.NoError(t, err)
			require.Len(t, verdicts, 4)
			for _, v := range verdicts {
				assert.False(t, v.Similar, "%s distance %v", v.Algorithm, v.Distance)
			}

			similar, err := cmp.Similar(NewEntity(tc.a, images[tc.a]), NewEntity(tc.b, images[tc.b]))
			require.NoError(t, err)
			assert.False(t, similar)
		})
	}
}

func TestDefaultSpecsMatchEditedCopies(t *testing.T) {
	cmp, err := NewComparator()
	require.NoError(t, err)

	for name, img := range map[string]*image.NRGBA{
		"disk":  disk(64, 64),
		"ring":  ring(64, 64),
		"bands": bands(64, 64),
	} {
		t.Run(name, func(t *testing.T) {
			copies := map[string]image.Image{
				"resized": imaging.Resize(img, 96, 96, imaging.Linear),
				"blurred": imaging.Blur(img, 0.6),
			}
			for kind, cp := range copies {
				similar, err := cmp.Similar(NewEntity(name, img), NewEntity(kind, cp))
				require.NoError(t, err)
				assert.True(t, similar, kind)

				verdicts, err := cmp.Distances(NewEntity(name, img), NewEntity(kind, cp))
				require.NoError(t, err)
				assert.Less(t, verdicts[2].Distance, 5.5, "%s color moment", kind)
			}
		})
	}
}
