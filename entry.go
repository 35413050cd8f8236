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

// Entry is a cursor for a single key of a [SocketMap]. It is either occupied
// (the map has a value for the key) or vacant.
//
// Entries reference the key's node directly, so operations through an entry do not
// repeat the lookup made by [SocketMap.Entry]. An entry and the occupied or vacant
// entries derived from it panic once a value has been inserted into or removed from
// the map other than through them.
type Entry[K Key[K], V Tagged[T], T comparable] struct {
	m   *SocketMap[K, V, T]
	key K
	n   *node[V, T] // nil if the key is not tracked
	gen uint64
}

// Key returns the key of e.
func (e Entry[K, V, T]) Key() K { return e.key }

// Occupied returns e as an [OccupiedEntry] if the map has a value for its key.
func (e Entry[K, V, T]) Occupied() (OccupiedEntry[K, V, T], bool) {
	e.m.checkGen(e.gen)
	if e.n == nil || !e.n.occupied {
		return OccupiedEntry[K, V, T]{}, false
	}
	return OccupiedEntry[K, V, T]{m: e.m, key: e.key, n: e.n, gen: e.gen}, true
}

// Vacant returns e as a [VacantEntry] if the map has no value for its key.
func (e Entry[K, V, T]) Vacant() (VacantEntry[K, V, T], bool) {
	e.m.checkGen(e.gen)
	if e.n != nil && e.n.occupied {
		return VacantEntry[K, V, T]{}, false
	}
	return VacantEntry[K, V, T]{m: e.m, key: e.key, n: e.n, gen: e.gen}, true
}

// OccupiedEntry is an entry for a key that has a value.
//
// There is no way to obtain a pointer to the value: that would allow callers to
// change the value's tag without updating descendant counts. Use [MapMutEntry].
type OccupiedEntry[K Key[K], V Tagged[T], T comparable] struct {
	m   *SocketMap[K, V, T]
	key K
	n   *node[V, T]
	gen uint64
}

// Key returns the key of o.
func (o OccupiedEntry[K, V, T]) Key() K { return o.key }

// Get returns the value referenced by o.
func (o OccupiedEntry[K, V, T]) Get() V {
	o.m.checkGen(o.gen)
	return o.n.value
}

// Update calls apply on the value referenced by o. See [SocketMap.Update].
func (o OccupiedEntry[K, V, T]) Update(apply func(*V)) {
	MapMutEntry(o, func(v *V) struct{} {
		apply(v)
		return struct{}{}
	})
}

// Remove removes the value referenced by o and returns it. o must not be used
// afterwards.
func (o OccupiedEntry[K, V, T]) Remove() V {
	o.m.checkGen(o.gen)
	return o.m.remove(o.key, o.n)
}

// DescendantCounts returns the descendant tag counts of o's key.
func (o OccupiedEntry[K, V, T]) DescendantCounts() []TagCount[T] {
	o.m.checkGen(o.gen)
	return o.n.counts.appendTo(nil)
}

// MapMutEntry calls apply on the value referenced by o and returns its result.
// Descendant counts of o's ancestors are updated if apply changes the value's tag.
func MapMutEntry[K Key[K], V Tagged[T], T comparable, R any](o OccupiedEntry[K, V, T], apply func(*V) R) R {
	o.m.checkGen(o.gen)
	return mapMut(o.m, o.key, o.n, apply)
}

// VacantEntry is an entry for a key that has no value. The key may still carry
// descendant counts.
type VacantEntry[K Key[K], V Tagged[T], T comparable] struct {
	m   *SocketMap[K, V, T]
	key K
	n   *node[V, T]
	gen uint64
}

// Key returns the key of v.
func (v VacantEntry[K, V, T]) Key() K { return v.key }

// Insert inserts a value for the key referenced by v and returns the now occupied
// entry. v must not be used afterwards.
func (v VacantEntry[K, V, T]) Insert(value V) OccupiedEntry[K, V, T] {
	v.m.checkGen(v.gen)
	n := v.m.insert(v.key, v.n, value)
	return OccupiedEntry[K, V, T]{m: v.m, key: v.key, n: n, gen: v.m.gen}
}

// DescendantCounts returns the descendant tag counts of v's key.
func (v VacantEntry[K, V, T]) DescendantCounts() []TagCount[T] {
	v.m.checkGen(v.gen)
	if v.n == nil {
		return nil
	}
	return v.n.counts.appendTo(nil)
}
