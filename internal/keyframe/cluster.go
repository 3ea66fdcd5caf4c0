package keyframe

// cluster is a run of consecutive frame indices. Members are always
// contiguous, so only the bounds are kept.
type cluster struct {
	first int
	last  int
	size  int
}

func (c *cluster) open(index int) {
	c.first, c.last, c.size = index, index, 1
}

func (c *cluster) add(index int) {
	c.last = index
	c.size++
}

func (c *cluster) empty() bool {
	return c.size == 0
}

func (c *cluster) clear() {
	*c = cluster{}
}

// median is the lower middle index of the run. The smaller bound is
// subtracted from the larger one so the sum of two indices is never formed.
func (c *cluster) median() int {
	lo, hi := c.first, c.last
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + (hi-lo)/2
}
