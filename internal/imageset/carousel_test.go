package imageset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Carousel_Clamp(t *testing.T) {
	testCases := []struct {
		name     string
		index    int
		length   int
		expected int
	}{
		{name: "index still valid", index: 1, length: 3, expected: 1},
		{name: "last removed", index: 3, length: 3, expected: 2},
		{name: "everything removed", index: 0, length: 0, expected: 0},
		{name: "far past the end", index: 9, length: 1, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var c Carousel
			c.Select(tc.index, tc.index+1)

			// when
			c.Clamp(tc.length)

			// then
			assert.Equal(t, tc.expected, c.Index())
			assert.GreaterOrEqual(t, c.Index(), 0)
		})
	}
}

func Test_Carousel_Wraps(t *testing.T) {
	var c Carousel

	c.Prev(3)
	assert.Equal(t, 2, c.Index())
	c.Next(3)
	assert.Equal(t, 0, c.Index())
	c.Next(3)
	c.Next(3)
	assert.Equal(t, 2, c.Index())

	c.Next(0)
	assert.Equal(t, 0, c.Index())
}

func Test_Carousel_Select(t *testing.T) {
	var c Carousel

	assert.True(t, c.Select(2, 3))
	assert.False(t, c.Select(3, 3))
	assert.False(t, c.Select(-1, 3))
	assert.Equal(t, 2, c.Index())
}
