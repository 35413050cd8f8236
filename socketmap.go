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

// Package socketmap implements a map that stores values and summarizes tag counts
// for keys of varying specificity.
//
// Keys implement [Shadows]: a key has zero or more shadow keys, and because the
// shadow relationship is transitive, any key reachable by following shadows of a
// key k is one of k's "ancestors", and k is a "descendant" of it. Values implement
// [Tagged]. In addition to keys and values, a [SocketMap] maintains, for every key,
// the number of values stored at its descendants, bucketed by tag.
//
// A typical key is a socket address: a fully specified connection shadows the
// listener on its local address, which shadows the wildcard listener on the same
// port. The descendant counts of a wildcard address then answer "are there any
// exclusive sockets bound more specifically than this?" without a scan.
//
// A SocketMap is not safe for concurrent use. Callers sharing one between
// goroutines must serialize access to the whole map.
package socketmap

import "fmt"

// node pairs an optional value with the tag counts of its key's descendants. A node
// is present in the table only while it holds a value or non-empty counts.
type node[V any, T comparable] struct {
	value    V
	occupied bool
	counts   descendantCounts[T]
}

// SocketMap maps keys to values and maintains per-key descendant tag counts.
// The zero value is an empty map ready to use.
type SocketMap[K Key[K], V Tagged[T], T comparable] struct {
	table table[K, node[V, T]]
	len   int
	gen   uint64 // incremented on every insert and remove
}

// New returns an empty map.
func New[K Key[K], V Tagged[T], T comparable]() *SocketMap[K, V, T] {
	return &SocketMap[K, V, T]{table: newTable[K, node[V, T]]()}
}

// Len returns the number of values in m.
func (m *SocketMap[K, V, T]) Len() int { return m.len }

// Nodes returns the number of keys tracked by m: keys with a value plus keys kept
// only for the descendant counts they carry.
func (m *SocketMap[K, V, T]) Nodes() int { return int(m.table.Len()) }

// Depth returns the average (mean) trie depth of all keys tracked by m.
func (m *SocketMap[K, V, T]) Depth() float64 { return m.table.Dep() }

func (m *SocketMap[K, V, T]) lookup(key K) *node[V, T] {
	if m.table.root == nil {
		return nil
	}
	return m.table.ptr(key)
}

func (m *SocketMap[K, V, T]) tab() table[K, node[V, T]] {
	if m.table.root == nil {
		m.table = newTable[K, node[V, T]]()
	}
	return m.table
}

// Get returns the value for key, or a zero value and false if there is none.
func (m *SocketMap[K, V, T]) Get(key K) (value V, ok bool) {
	if n := m.lookup(key); n != nil && n.occupied {
		value, ok = n.value, true
	}
	return
}

// Contains reports whether m has a value for key.
func (m *SocketMap[K, V, T]) Contains(key K) bool {
	n := m.lookup(key)
	return n != nil && n.occupied
}

// Entry returns an [Entry] for key for in-place manipulation. Callers branch on
// [Entry.Occupied] or [Entry.Vacant] depending on whether m has a value for key.
//
// An entry is valid until a value is next inserted into or removed from m other
// than through the entry. Using an entry after that panics.
func (m *SocketMap[K, V, T]) Entry(key K) Entry[K, V, T] {
	return Entry[K, V, T]{m: m, key: key, n: m.lookup(key), gen: m.gen}
}

// checkGen panics if an entry taken at generation gen is stale.
func (m *SocketMap[K, V, T]) checkGen(gen uint64) {
	if gen != m.gen {
		panic("socketmap: use of stale entry")
	}
}

// Remove removes the value for key, if there is one, and returns it.
func (m *SocketMap[K, V, T]) Remove(key K) (value V, ok bool) {
	n := m.lookup(key)
	if n == nil || !n.occupied {
		return value, false
	}
	return m.remove(key, n), true
}

// Update calls apply on the value for key, keeping descendant counts of key's
// ancestors in sync with any change of the value's tag. It reports whether m has a
// value for key.
func (m *SocketMap[K, V, T]) Update(key K, apply func(*V)) bool {
	_, ok := MapMut(m, key, func(v *V) struct{} {
		apply(v)
		return struct{}{}
	})
	return ok
}

// MapMut calls apply on the value for key and returns its result. If m has no value
// for key, apply is not called and MapMut returns a zero result and false.
//
// Descendant counts of key's ancestors are updated if apply changes the value's tag.
func MapMut[K Key[K], V Tagged[T], T comparable, R any](m *SocketMap[K, V, T], key K, apply func(*V) R) (r R, ok bool) {
	n := m.lookup(key)
	if n == nil || !n.occupied {
		return r, false
	}
	return mapMut(m, key, n, apply), true
}

func mapMut[K Key[K], V Tagged[T], T comparable, R any](m *SocketMap[K, V, T], key K, n *node[V, T], apply func(*V) R) R {
	oldTag := n.value.Tag()
	r := apply(&n.value)
	newTag := n.value.Tag()
	m.updateDescendantCounts(key.Shadows(), oldTag, newTag)
	return r
}

// DescendantCounts returns the counts of tags for values at keys that shadow key.
//
// This is equivalent to filtering all keys in m for those that have key among their
// shadows, calling Tag on each of their values, and counting the occurrences of each
// tag. The order of the returned counts is unspecified.
func (m *SocketMap[K, V, T]) DescendantCounts(key K) []TagCount[T] {
	n := m.lookup(key)
	if n == nil || n.counts.empty() {
		return nil
	}
	return n.counts.appendTo(make([]TagCount[T], 0, n.counts.n))
}

// DescendantCount returns the number of values tagged tag at keys that shadow key.
func (m *SocketMap[K, V, T]) DescendantCount(key K, tag T) uint {
	if n := m.lookup(key); n != nil {
		return n.counts.count(tag)
	}
	return 0
}

// HasDescendants reports whether any key that shadows key has a value.
func (m *SocketMap[K, V, T]) HasDescendants(key K) bool {
	n := m.lookup(key)
	return n != nil && !n.counts.empty()
}

// All ranges over the keys and values in m, applying the do callback to each until
// the callback returns false or all values have been visited. Keys kept only for
// their descendant counts are skipped.
func (m *SocketMap[K, V, T]) All(do func(K, V) bool) {
	if m.table.root == nil {
		return
	}
	m.table.all(func(k K, n *node[V, T]) bool {
		if !n.occupied {
			return true
		}
		return do(k, n.value)
	})
}

func (m *SocketMap[K, V, T]) insert(key K, n *node[V, T], value V) *node[V, T] {
	if n == nil {
		n, _ = m.tab().upsert(key)
	}
	if n.occupied {
		panic("socketmap: insert into occupied entry")
	}
	n.value, n.occupied = value, true
	m.len++
	m.gen++
	m.incrementDescendantCounts(key.Shadows(), value.Tag())
	return n
}

func (m *SocketMap[K, V, T]) remove(key K, n *node[V, T]) V {
	value := n.value
	var zero V
	n.value, n.occupied = zero, false
	m.len--
	m.gen++
	m.decrementDescendantCounts(key.Shadows(), value.Tag())
	if n.counts.empty() {
		m.table.del(key)
	}
	return value
}

func (m *SocketMap[K, V, T]) incrementDescendantCounts(shadows []K, tag T) {
	t := m.tab()
	for _, shadow := range shadows {
		n, _ := t.upsert(shadow)
		n.counts.increment(tag)
	}
}

func (m *SocketMap[K, V, T]) updateDescendantCounts(shadows []K, oldTag, newTag T) {
	if oldTag == newTag {
		return
	}
	for _, shadow := range shadows {
		n := m.table.ptr(shadow)
		if n == nil {
			panic(fmt.Sprintf("socketmap: missing ancestor %v", shadow))
		}
		n.counts.decrement(oldTag)
		n.counts.increment(newTag)
	}
}

func (m *SocketMap[K, V, T]) decrementDescendantCounts(shadows []K, oldTag T) {
	for _, shadow := range shadows {
		n := m.table.ptr(shadow)
		if n == nil {
			panic(fmt.Sprintf("socketmap: missing ancestor %v", shadow))
		}
		n.counts.decrement(oldTag)
		if n.counts.empty() && !n.occupied {
			m.table.del(shadow)
		}
	}
}
