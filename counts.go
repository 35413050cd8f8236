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

import "fmt"

// TagCount is the number of values with a given tag.
type TagCount[T comparable] struct {
	Tag   T
	Count uint
}

// inlineCounts is the number of tag counts stored without a heap allocation.
// Most keys are shadowed by values of a single tag.
const inlineCounts = 1

// descendantCounts holds unordered (tag, count) pairs. Tags are unique and
// counts are never zero.
type descendantCounts[T comparable] struct {
	inline [inlineCounts]TagCount[T]
	spill  []TagCount[T]
	n      int
}

func (c *descendantCounts[T]) at(i int) *TagCount[T] {
	if i < inlineCounts {
		return &c.inline[i]
	}
	return &c.spill[i-inlineCounts]
}

func (c *descendantCounts[T]) find(tag T) int {
	for i := 0; i < c.n; i++ {
		if c.at(i).Tag == tag {
			return i
		}
	}
	return -1
}

// increment increments the count for tag.
func (c *descendantCounts[T]) increment(tag T) {
	if i := c.find(tag); i >= 0 {
		c.at(i).Count++
		return
	}
	tc := TagCount[T]{Tag: tag, Count: 1}
	if c.n < inlineCounts {
		c.inline[c.n] = tc
	} else {
		c.spill = append(c.spill, tc)
	}
	c.n++
}

// decrement decrements the count for tag, dropping the tag when its count reaches
// zero. It panics if there is no count for tag.
func (c *descendantCounts[T]) decrement(tag T) {
	i := c.find(tag)
	if i < 0 {
		panic(fmt.Sprintf("socketmap: no descendant count for tag %v", tag))
	}
	tc := c.at(i)
	if tc.Count > 1 {
		tc.Count--
		return
	}
	last := c.n - 1
	*tc = *c.at(last) // swap remove
	if last < inlineCounts {
		c.inline[last] = TagCount[T]{}
	} else {
		c.spill[last-inlineCounts] = TagCount[T]{}
		c.spill = c.spill[:last-inlineCounts]
	}
	c.n--
}

func (c *descendantCounts[T]) empty() bool { return c.n == 0 }

// count returns the count for tag, or 0.
func (c *descendantCounts[T]) count(tag T) uint {
	if i := c.find(tag); i >= 0 {
		return c.at(i).Count
	}
	return 0
}

// appendTo appends every (tag, count) pair to dst.
func (c *descendantCounts[T]) appendTo(dst []TagCount[T]) []TagCount[T] {
	for i := 0; i < c.n; i++ {
		dst = append(dst, *c.at(i))
	}
	return dst
}
