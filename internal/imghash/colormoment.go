package imghash

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	colorMomentSize  = 512
	colorMomentSigma = 0.8

	huInvariantCount  = 7
	colorMomentPlanes = 6
	colorMomentLength = huInvariantCount * colorMomentPlanes

	// Raw Hu invariants differ by ~1e-3 between unrelated images, the
	// threshold is expressed on this scale.
	colorMomentScale = 10000
)

// computeColorMoment hashes an image into the Hu invariants of its HSV and
// YCrCb planes.
func computeColorMoment(img image.Image) (Blob, error) {
	resized := imaging.Resize(img, colorMomentSize, colorMomentSize, imaging.CatmullRom)
	blurred := imaging.Blur(resized, colorMomentSigma)

	planes := colorPlanes(blurred)
	features := make([]float64, 0, colorMomentLength)
	for _, plane := range planes {
		hu := huInvariants(plane, colorMomentSize, colorMomentSize)
		features = append(features, hu[:]...)
	}
	return encodeFloats(features), nil
}

func colorMomentDistance(a, b Blob) (float64, error) {
	fa, err := decodeFloats(a, colorMomentLength)
	if err != nil {
		return 0, err
	}
	fb, err := decodeFloats(b, colorMomentLength)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range fa {
		d := fa[i] - fb[i]
		sum += d * d
	}
	return math.Sqrt(sum) * colorMomentScale, nil
}

// colorPlanes splits an image into H, S, V, Y, Cr, Cb planes using 8-bit
// ranges (hue in [0, 180)).
func colorPlanes(img *image.NRGBA) [colorMomentPlanes][]float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	var planes [colorMomentPlanes][]float64
	for i := range planes {
		planes[i] = make([]float64, w*h)
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			r := float64(row[x*4])
			g := float64(row[x*4+1])
			b := float64(row[x*4+2])
			idx := y*w + x

			hue, sat, val := toHSV(r, g, b)
			planes[0][idx] = hue
			planes[1][idx] = sat
			planes[2][idx] = val

			luma, cr, cb := toYCrCb(r, g, b)
			planes[3][idx] = luma
			planes[4][idx] = cr
			planes[5][idx] = cb
		}
	}
	return planes
}

func toHSV(r, g, b float64) (h, s, v float64) {
	v = math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	diff := v - lo
	if v > 0 {
		s = math.Round(255 * diff / v)
	}
	if diff == 0 {
		return 0, s, v
	}
	switch v {
	case r:
		h = 60 * (g - b) / diff
	case g:
		h = 120 + 60*(b-r)/diff
	default:
		h = 240 + 60*(r-g)/diff
	}
	if h < 0 {
		h += 360
	}
	return math.Round(h / 2), s, v
}

func toYCrCb(r, g, b float64) (y, cr, cb float64) {
	y = 0.299*r + 0.587*g + 0.114*b
	cr = clamp8((r-y)*0.713 + 128)
	cb = clamp8((b-y)*0.564 + 128)
	return clamp8(y), cr, cb
}

func clamp8(v float64) float64 {
	return math.Max(0, math.Min(255, math.Round(v)))
}

// huInvariants computes the seven Hu moment invariants of a plane laid out
// row by row with the given width and height.
func huInvariants(plane []float64, w, h int) [huInvariantCount]float64 {
	var hu [huInvariantCount]float64

	var m00, m10, m01 float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := plane[y*w+x]
			m00 += v
			m10 += float64(x) * v
			m01 += float64(y) * v
		}
	}
	if m00 == 0 {
		return hu
	}
	cx, cy := m10/m00, m01/m00

	var mu20, mu02, mu11, mu30, mu03, mu21, mu12 float64
	for y := 0; y < h; y++ {
		dy := float64(y) - cy
		for x := 0; x < w; x++ {
			v := plane[y*w+x]
			if v == 0 {
				continue
			}
			dx := float64(x) - cx
			mu20 += dx * dx * v
			mu02 += dy * dy * v
			mu11 += dx * dy * v
			mu30 += dx * dx * dx * v
			mu03 += dy * dy * dy * v
			mu21 += dx * dx * dy * v
			mu12 += dx * dy * dy * v
		}
	}

	s2 := m00 * m00
	s3 := s2 * math.Sqrt(m00)
	n20, n02, n11 := mu20/s2, mu02/s2, mu11/s2
	n30, n03, n21, n12 := mu30/s3, mu03/s3, mu21/s3, mu12/s3

	t0 := n30 + n12
	t1 := n21 + n03
	q0 := t0 * t0
	q1 := t1 * t1
	d0 := n30 - 3*n12
	d1 := 3*n21 - n03

	hu[0] = n20 + n02
	hu[1] = (n20-n02)*(n20-n02) + 4*n11*n11
	hu[2] = d0*d0 + d1*d1
	hu[3] = q0 + q1
	hu[4] = d0*t0*(q0-3*q1) + d1*t1*(3*q0-q1)
	hu[5] = (n20-n02)*(q0-q1) + 4*n11*t0*t1
	hu[6] = d1*t0*(q0-3*q1) - d0*t1*(3*q0-q1)
	return hu
}

func encodeFloats(values []float64) Blob {
	b := make(Blob, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

func decodeFloats(b Blob, n int) ([]float64, error) {
	if len(b) != n*8 {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedBlob, n*8, len(b))
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return values, nil
}
