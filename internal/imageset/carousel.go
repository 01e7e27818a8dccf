package imageset

// Carousel tracks the image shown on the detail screen.
type Carousel struct {
	index int
}

// Index returns the current position.
func (c *Carousel) Index() int {
	return c.index
}

// Select moves to i when it is within [0, n).
func (c *Carousel) Select(i, n int) bool {
	if i < 0 || i >= n {
		return false
	}
	c.index = i
	return true
}

// Next advances, wrapping to the first image.
func (c *Carousel) Next(n int) {
	if n <= 0 {
		c.index = 0
		return
	}
	c.index = (c.index + 1) % n
}

// Prev steps back, wrapping to the last image.
func (c *Carousel) Prev(n int) {
	if n <= 0 {
		c.index = 0
		return
	}
	c.index = (c.index - 1 + n) % n
}

// Clamp keeps the index within a sequence of n images: min(index, n-1), never negative.
func (c *Carousel) Clamp(n int) {
	if c.index > n-1 {
		c.index = n - 1
	}
	if c.index < 0 {
		c.index = 0
	}
}

// Reset returns to the cover image.
func (c *Carousel) Reset() {
	c.index = 0
}
