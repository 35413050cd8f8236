// The MIT License (MIT)
//
// Copyright (c) 2022 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package socketmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countsMap[T comparable](counts []TagCount[T]) map[T]uint {
	m := make(map[T]uint, len(counts))
	for _, tc := range counts {
		m[tc.Tag] = tc.Count
	}
	return m
}

func TestDescendantCountsIncrementDecrement(t *testing.T) {
	var c descendantCounts[string]
	assert.True(t, c.empty())

	c.increment("a")
	c.increment("a")
	c.increment("b")
	c.increment("c")
	assert.False(t, c.empty())
	assert.Equal(t, map[string]uint{"a": 2, "b": 1, "c": 1}, countsMap(c.appendTo(nil)))
	assert.EqualValues(t, 2, c.count("a"))
	assert.EqualValues(t, 0, c.count("z"))

	c.decrement("a")
	assert.Equal(t, map[string]uint{"a": 1, "b": 1, "c": 1}, countsMap(c.appendTo(nil)))

	// Removing the inline pair pulls a spilled pair inline.
	c.decrement("a")
	assert.Equal(t, map[string]uint{"b": 1, "c": 1}, countsMap(c.appendTo(nil)))
	c.decrement("c")
	c.decrement("b")
	assert.True(t, c.empty())
	assert.Empty(t, c.spill)
	assert.Nil(t, c.appendTo(nil))
}

func TestDescendantCountsUniqueTags(t *testing.T) {
	var c descendantCounts[int]
	for i := 0; i < 10; i++ {
		for tag := 0; tag < 5; tag++ {
			c.increment(tag)
		}
	}
	require.Equal(t, 5, c.n)
	for tag := 0; tag < 5; tag++ {
		assert.EqualValues(t, 10, c.count(tag))
	}
}

func TestDescendantCountsDecrementMissing(t *testing.T) {
	var c descendantCounts[int]
	c.increment(1)
	assert.Panics(t, func() { c.decrement(2) })
}
