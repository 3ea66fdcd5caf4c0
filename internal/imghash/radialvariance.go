package imghash

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	radialSigma    = 1.0
	radialLines    = 180
	radialHashSize = 40
)

// computeRadialVariance hashes the luminance variance along radial lines
// through the image centre, compressed with a DCT.
func computeRadialVariance(img image.Image) (Blob, error) {
	grey := imaging.Blur(imaging.Grayscale(img), radialSigma)
	w, h := grey.Rect.Dx(), grey.Rect.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := grey.Pix[y*grey.Stride:]
		for x := 0; x < w; x++ {
			lum[y*w+x] = float64(row[x*4])
		}
	}
	return radialDigest(radialFeatures(lum, w, h)), nil
}

func radialVarianceDistance(a, b Blob) (float64, error) {
	if len(a) != radialHashSize || len(b) != radialHashSize {
		return 0, errBlobSize(radialHashSize, len(a), len(b))
	}
	return peakCorrelation(a, b), nil
}

// radialFeatures returns the standardised variance of each projection line.
func radialFeatures(lum []float64, w, h int) []float64 {
	features := make([]float64, radialLines)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	steps := int(math.Ceil(math.Hypot(float64(w), float64(h)) / 2))

	for k := range features {
		sin, cos := math.Sincos(float64(k) * math.Pi / radialLines)
		var sum, sumSq float64
		n := 0
		for t := -steps; t <= steps; t++ {
			x := int(math.Round(cx + float64(t)*cos))
			y := int(math.Round(cy + float64(t)*sin))
			if x < 0 || x >= w || y < 0 || y >= h {
				continue
			}
			v := lum[y*w+x]
			sum += v
			sumSq += v * v
			n++
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		features[k] = sumSq/float64(n) - mean*mean
	}

	var sum, sumSq float64
	for _, f := range features {
		sum += f
		sumSq += f * f
	}
	mean := sum / radialLines
	std := math.Sqrt(math.Max(0, sumSq/radialLines-mean*mean))
	for k := range features {
		if std == 0 {
			features[k] = 0
			continue
		}
		features[k] = (features[k] - mean) / std
	}
	return features
}

// radialDigest keeps the first DCT-II coefficients of the features,
// stretched to the byte range.
func radialDigest(features []float64) Blob {
	n := float64(len(features))
	coeffs := make([]float64, radialHashSize)
	lo, hi := math.Inf(1), math.Inf(-1)
	for k := range coeffs {
		var sum float64
		for i, f := range features {
			sum += f * math.Cos(math.Pi*float64(2*i+1)*float64(k)/(2*n))
		}
		if k == 0 {
			coeffs[k] = sum / math.Sqrt(n)
		} else {
			coeffs[k] = sum * math.Sqrt2 / math.Sqrt(n)
		}
		lo = math.Min(lo, coeffs[k])
		hi = math.Max(hi, coeffs[k])
	}

	blob := make(Blob, radialHashSize)
	if hi <= lo {
		return blob
	}
	for k, c := range coeffs {
		blob[k] = uint8(math.Round(255 * (c - lo) / (hi - lo)))
	}
	return blob
}

// peakCorrelation is the maximum normalised cross-correlation of a against
// every cyclic shift of b.
func peakCorrelation(a, b Blob) float64 {
	n := len(a)
	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += float64(a[i])
		meanB += float64(b[i])
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var varA, varB float64
	for i := 0; i < n; i++ {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		if bytes.Equal(a, b) {
			return 1
		}
		return 0
	}
	norm := math.Sqrt(varA * varB)

	peak := math.Inf(-1)
	for shift := 0; shift < n; shift++ {
		var num float64
		for i := 0; i < n; i++ {
			num += (float64(a[i]) - meanA) * (float64(b[(i+shift)%n]) - meanB)
		}
		peak = math.Max(peak, num/norm)
	}
	return peak
}
