package types

// Chain is the stack of types visited along one side of a compatibility
// walk. Mark and Rewind bracket each descent into a child pair.
type Chain struct {
	links []*Type
	marks []int
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{}
}

// Add pushes t
func (c *Chain) Add(t *Type) {
	c.links = append(c.links, t)
}

// Mark records the current depth
func (c *Chain) Mark() {
	c.marks = append(c.marks, len(c.links))
}

// Rewind drops everything pushed since the last Mark
func (c *Chain) Rewind() {
	if len(c.marks) == 0 {
		return
	}
	n := c.marks[len(c.marks)-1]
	c.marks = c.marks[:len(c.marks)-1]
	c.links = c.links[:n]
}

// HasRecursion reports whether the most recent type was already on the chain
func (c *Chain) HasRecursion() bool {
	n := len(c.links)
	if n < 2 {
		return false
	}
	last := c.links[n-1]
	for _, l := range c.links[:n-1] {
		if l == last {
			return true
		}
	}
	return false
}

// pairRecursion reports whether the pair on top of both chains was already
// compared at an outer depth. Both chains grow in lock step.
func pairRecursion(left, right *Chain) bool {
	if !left.HasRecursion() || !right.HasRecursion() {
		return false
	}
	n := len(left.links)
	if len(right.links) != n {
		return false
	}
	a, b := left.links[n-1], right.links[n-1]
	for i := 0; i < n-1; i++ {
		if left.links[i] == a && right.links[i] == b {
			return true
		}
	}
	return false
}
