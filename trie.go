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
	"hash/maphash"
	"unsafe"
)

// The backing table is a Hash Array Mapped Trie. See "Ideal Hash Trees" (Phil Bagwell, 2001).
//
// Every trie level has a natural cardinality of 16 and is indexed by 4 hash bits, so the
// depth of a table will be on the order of log16(N). Keys are rehashed after every
// 16 levels, once all 64 hash bits have been consumed.

// root contains the root level of a table. Each root allocation is 512 bytes,
// typically 8 cache lines on 64-bit architectures. Multiples of 64 bytes will likely
// be 64-byte (cache) aligned by the memory allocator.
type root struct {
	link
	seed  maphash.Seed
	len   uint64
	dep   uint64
	_     [3]uint64    // pad to 64-byte alignment
	items [16]link     // referenced by link
	path  [12]pathLink // scratch for traversal path during deletion
}

func newRoot() *root {
	r := &root{seed: maphash.MakeSeed()}
	r.link.ptr = unsafe.Pointer(&r.items)
	return r
}

// Len returns the number of entries in r.
func (r *root) Len() uint {
	if r == nil {
		return 0
	}
	return uint(r.len)
}

// Dep returns the average (mean) depth of all entries in r.
func (r *root) Dep() float64 {
	if r == nil || r.len == 0 {
		return 0
	}
	return float64(r.dep) / float64(r.len)
}

// link is a trie level with up to 16 items or a key-node pointer within a level.
type link struct {
	ptr  unsafe.Pointer // *[4|8|12|16]link | *kv
	pmap uint32         // uint16 ptr table presence bits
	tmap uint32         // uint16 ptr table type bits (0: *[...]link, 1: *kv)
}

const linkSize = unsafe.Sizeof(link{})

// Allocate an array of 4, 8, 12, or 16 links. Each block of 4 links is 64 bytes,
// a typical cache line on 64-bit architectures.
func newLinkArray(capacity uint8) unsafe.Pointer {
	switch {
	case capacity <= 4:
		return unsafe.Pointer(new([4]link))
	case capacity <= 8:
		return unsafe.Pointer(new([8]link))
	case capacity <= 12:
		return unsafe.Pointer(new([12]link))
	default:
		return unsafe.Pointer(new([16]link))
	}
}

// linkAt returns the i-th link of the array referenced by arr.
func linkAt(arr unsafe.Pointer, i uint8) *link {
	return (*link)(unsafe.Add(arr, uintptr(i)*linkSize))
}

// pathLink references a branch traversed during deletion.
type pathLink struct {
	radix uint8
	*link
}

// hashKey hashes key 1 or more times. The iter count indicates the number of times the key
// has been rehashed; for the initial hash the iter count is zero.
func hashKey[K comparable](seed maphash.Seed, key K, iter uint) uint64 {
	if iter == 0 {
		return maphash.Comparable(seed, key)
	}
	var hw maphash.Hash
	hw.SetSeed(seed)
	for i := uint(0); i <= iter; i++ {
		maphash.WriteComparable(&hw, key)
	}
	return hw.Sum64()
}
