package imghash

import (
	"encoding/hex"
	"fmt"
	"image"
)

// Algorithm identifies one of the fixed perceptual hash variants.
type Algorithm int

const (
	AverageHash Algorithm = iota
	PerceptualHash
	ColorMomentHash
	RadialVarianceHash

	numAlgorithms = iota
)

var algorithmNames = [numAlgorithms]string{
	"average",
	"perceptual",
	"color_moment",
	"radial_variance",
}

// Algorithms returns every variant in evaluation order.
func Algorithms() []Algorithm {
	return []Algorithm{AverageHash, PerceptualHash, ColorMomentHash, RadialVarianceHash}
}

func ParseAlgorithm(name string) (Algorithm, error) {
	for i, n := range algorithmNames {
		if n == name {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func (a Algorithm) String() string {
	if !a.valid() {
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

func (a Algorithm) valid() bool {
	return a >= 0 && a < numAlgorithms
}

// Blob is the opaque output of a hash computation.
type Blob []byte

func (b Blob) String() string {
	return hex.EncodeToString(b)
}

// Direction tells which side of the threshold counts as similar.
type Direction int

const (
	// AtMost: distance <= threshold is similar.
	AtMost Direction = iota
	// AtLeast: distance >= threshold is similar.
	AtLeast
)

func (d Direction) String() string {
	if d == AtLeast {
		return ">="
	}
	return "<="
}

// Spec binds an algorithm to its hash function, its distance metric and
// its decision threshold.
type Spec struct {
	Algorithm Algorithm
	Compute   func(img image.Image) (Blob, error)
	Distance  func(a, b Blob) (float64, error)
	Threshold float64
	Direction Direction
}

// Decide reports whether distance is on the similar side of the threshold.
// The threshold itself is always inclusive.
func (s Spec) Decide(distance float64) bool {
	if s.Direction == AtLeast {
		return distance >= s.Threshold
	}
	return distance <= s.Threshold
}

// DefaultSpecs returns the fixed algorithm table in evaluation order.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Algorithm: AverageHash,
			Compute:   computeAverage,
			Distance:  hammingDistance(averageKind),
			Threshold: 15,
			Direction: AtMost,
		},
		{
			Algorithm: PerceptualHash,
			Compute:   computePerceptual,
			Distance:  hammingDistance(perceptualKind),
			Threshold: 15,
			Direction: AtMost,
		},
		{
			Algorithm: ColorMomentHash,
			Compute:   computeColorMoment,
			Distance:  colorMomentDistance,
			Threshold: 5.5,
			Direction: AtMost,
		},
		{
			// Peak cross-correlation: larger means more similar.
			Algorithm: RadialVarianceHash,
			Compute:   computeRadialVariance,
			Distance:  radialVarianceDistance,
			Threshold: 0.708,
			Direction: AtLeast,
		},
	}
}
