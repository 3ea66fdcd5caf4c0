package imghash

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewComparator fuses the given algorithm specs, evaluated in order.
// Without specs the default table is used.
func NewComparator(specs ...Spec) (*Comparator, error) {
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}
	seen := make(map[Algorithm]bool, len(specs))
	for i, spec := range specs {
		if !spec.Algorithm.valid() {
			return nil, fmt.Errorf("%w: spec %d: %v", ErrInvalidSpec, i, spec.Algorithm)
		}
		if seen[spec.Algorithm] {
			return nil, fmt.Errorf("%w: duplicate %s", ErrInvalidSpec, spec.Algorithm)
		}
		if spec.Compute == nil || spec.Distance == nil {
			return nil, fmt.Errorf("%w: %s has no compute or distance function", ErrInvalidSpec, spec.Algorithm)
		}
		seen[spec.Algorithm] = true
	}
	return &Comparator{
		specs:  append([]Spec(nil), specs...),
		logger: logrus.WithField("component", "comparator"),
	}, nil
}

// Comparator decides visual equality: two entities are similar when any
// single algorithm says so. It holds no mutable state and can be shared
// between goroutines that work on distinct entities.
type Comparator struct {
	specs  []Spec
	logger *logrus.Entry
}

// Verdict is one algorithm's opinion on a pair.
type Verdict struct {
	Algorithm Algorithm
	Distance  float64
	Similar   bool
}

func (c *Comparator) Specs() []Spec {
	return append([]Spec(nil), c.specs...)
}

// Similar reports whether a and b are visually the same. Hashes are computed
// on demand and memoized in the entities; evaluation stops at the first
// algorithm that matches.
func (c *Comparator) Similar(a, b *Entity) (bool, error) {
	if err := checkPair(a, b); err != nil {
		return false, err
	}
	for _, spec := range c.specs {
		dist, err := c.distance(spec, a, b)
		if err != nil {
			return false, err
		}
		if spec.Decide(dist) {
			c.logger.WithFields(logrus.Fields{
				"algorithm": spec.Algorithm,
				"distance":  dist,
			}).Debugf("%s matches %s", a.ID, b.ID)
			return true, nil
		}
	}
	return false, nil
}

// Distances evaluates every algorithm without short-circuiting.
func (c *Comparator) Distances(a, b *Entity) ([]Verdict, error) {
	if err := checkPair(a, b); err != nil {
		return nil, err
	}
	verdicts := make([]Verdict, 0, len(c.specs))
	for _, spec := range c.specs {
		dist, err := c.distance(spec, a, b)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, Verdict{
			Algorithm: spec.Algorithm,
			Distance:  dist,
			Similar:   spec.Decide(dist),
		})
	}
	return verdicts, nil
}

// Complete fills every slot of e that is still missing.
func (c *Comparator) Complete(e *Entity) error {
	if e == nil || !e.usable() {
		return fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	for _, spec := range c.specs {
		if _, err := e.ensure(spec); err != nil {
			return fmt.Errorf("hashing %q: %w", e.ID, err)
		}
	}
	return nil
}

// Hash returns the memoized hash of e for alg.
func (c *Comparator) Hash(e *Entity, alg Algorithm) (Blob, error) {
	if e == nil || !e.usable() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	for _, spec := range c.specs {
		if spec.Algorithm == alg {
			return e.ensure(spec)
		}
	}
	return nil, fmt.Errorf("%w: %s is not configured", ErrUnknownAlgorithm, alg)
}

func (c *Comparator) distance(spec Spec, a, b *Entity) (float64, error) {
	ha, err := a.ensure(spec)
	if err != nil {
		return 0, fmt.Errorf("hashing %q: %w", a.ID, err)
	}
	hb, err := b.ensure(spec)
	if err != nil {
		return 0, fmt.Errorf("hashing %q: %w", b.ID, err)
	}
	dist, err := spec.Distance(ha, hb)
	if err != nil {
		return 0, fmt.Errorf("comparing %s hashes of %q and %q: %w", spec.Algorithm, a.ID, b.ID, err)
	}
	return dist, nil
}

func checkPair(a, b *Entity) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: evaluating comparison with unset entity", ErrInvalidInput)
	}
	if !a.usable() || !b.usable() {
		return fmt.Errorf("%w: evaluating comparison with empty image", ErrInvalidInput)
	}
	return nil
}
