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
	"math/bits"
	"unsafe"
)

// table maps comparable keys to nodes. Nodes are allocated individually and keep
// their address for as long as their key is present, so a pointer returned by
// ptr or upsert stays valid across insertions and deletions of other keys.
type table[K comparable, N any] struct {
	*root
	hashFn func(key K, iter uint) uint64 // nil: seeded maphash
}

type kv[K comparable, N any] struct {
	n N
	k K
}

func newTable[K comparable, N any]() table[K, N] {
	return table[K, N]{root: newRoot()}
}

// newTableHash returns a table that hashes keys with hash instead of maphash. hash
// must return a different value for each rehash iteration of a key, or colliding
// keys can never be separated.
func newTableHash[K comparable, N any](hash func(key K, iter uint) uint64) table[K, N] {
	return table[K, N]{root: newRoot(), hashFn: hash}
}

func (t table[K, N]) hash(key K, iter uint) uint64 {
	if t.hashFn != nil {
		return t.hashFn(key, iter)
	}
	return hashKey(t.seed, key, iter)
}

// ptr returns a pointer to the node for key, or nil if the key is missing.
func (t table[K, N]) ptr(key K) *N {
	hd, l, d := t.hash(key, 0), &t.link, uint8(0)
	radix := uint8(hd & 0xF)
	bit := uint32(1) << radix
	idx := uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix))) & 0xF
	for l.pmap&bit != 0 { // item present
		item := linkAt(l.ptr, idx)
		if l.tmap&bit == 0 { // traverse branch
			l = item
			d++
			if d&0xF != 0 { // hash bits available
				hd >>= 4
			} else { // rehash
				hd = t.hash(key, uint(d>>4))
			}
			radix = uint8(hd & 0xF)
			bit, idx = 1<<radix, uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix)))&0xF
			continue
		}
		if e := (*kv[K, N])(item.ptr); e.k == key { // key match
			return &e.n
		}
		return nil // key mismatch
	}
	return nil // item missing
}

// upsert returns a pointer to the node for key, linking a zero node if the key is
// missing. The found result reports whether the key was already present.
func (t table[K, N]) upsert(key K) (n *N, found bool) {
	hd, l, d := t.hash(key, 0), &t.link, uint8(0)
	radix := uint8(hd & 0xF)
	bit := uint32(1) << radix
	idx := uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix))) & 0xF
	for l.pmap&bit != 0 { // item present
		item := linkAt(l.ptr, idx)
		if l.tmap&bit == 0 { // traverse branch
			l = item
			d++
			if d&0xF != 0 { // hash bits available
				hd >>= 4
			} else { // rehash
				hd = t.hash(key, uint(d>>4))
			}
			radix = uint8(hd & 0xF)
			bit, idx = 1<<radix, uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix)))&0xF
			continue
		}
		ce := (*kv[K, N])(item.ptr)
		ckey := ce.k
		if key == ckey { // existing
			return &ce.n, true
		}
		// rehash conflicting key at the current depth
		chd := t.hash(ckey, uint(d>>4)) >> (4 * (d % (64 / 4)))
		// replace with new branch until non-colliding
		l.tmap &^= bit
		t.dep -= uint64(d) // conflicting key depth
		for {
			d++
			if d&0xF != 0 { // hash bits available
				hd >>= 4
				chd >>= 4
			} else { // rehash
				hd, chd = t.hash(key, uint(d>>4)), t.hash(ckey, uint(d>>4))
			}
			kbit, cbit := uint32(1)<<uint8(hd&0xF), uint32(1)<<uint8(chd&0xF)
			item.pmap = kbit | cbit
			if kbit != cbit { // non-colliding
				item.tmap = item.pmap
				item.ptr = newLinkArray(2)
				e := &kv[K, N]{k: key}
				if pair := (*[2]link)(item.ptr); kbit < cbit {
					pair[0].ptr, pair[1].ptr = unsafe.Pointer(e), unsafe.Pointer(ce)
				} else {
					pair[0].ptr, pair[1].ptr = unsafe.Pointer(ce), unsafe.Pointer(e)
				}
				t.len++
				t.dep += uint64(d) * 2
				return &e.n, false // item added
			}
			// handle collision at new level
			item.ptr = newLinkArray(1)
			item = (*link)(item.ptr)
		}
	}
	e := &kv[K, N]{k: key}
	count := uint8(bits.OnesCount32(l.pmap))
	if (count != 0 && count%4 != 0) || d == 0 { // array slot available
		for after := int(count) - 1; after >= int(idx); after-- {
			*linkAt(l.ptr, uint8(after+1)) = *linkAt(l.ptr, uint8(after))
		}
		*linkAt(l.ptr, idx) = link{ptr: unsafe.Pointer(e)}
	} else { // array full or empty
		src := l.ptr
		l.ptr = newLinkArray(count + 1)
		for before := uint8(0); before < idx; before++ {
			*linkAt(l.ptr, before) = *linkAt(src, before)
		}
		*linkAt(l.ptr, idx) = link{ptr: unsafe.Pointer(e)}
		for after := idx; after < count; after++ {
			*linkAt(l.ptr, after+1) = *linkAt(src, after)
		}
	}
	l.pmap |= bit
	l.tmap |= bit
	t.len++
	t.dep += uint64(d)
	return &e.n, false
}

// del unlinks the node for key. It reports whether the key was present.
func (t table[K, N]) del(key K) bool {
	path := t.path[:0]
	hd, l, d := t.hash(key, 0), &t.link, uint8(0)
	radix := uint8(hd & 0xF)
	bit := uint32(1) << radix
	idx := uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix))) & 0xF
	for l.pmap&bit != 0 { // item present
		path = append(path, pathLink{radix, l})
		item := linkAt(l.ptr, idx)
		if l.tmap&bit == 0 { // traverse branch
			l = item
			d++
			if d&0xF != 0 { // hash bits available
				hd >>= 4
			} else { // rehash
				hd = t.hash(key, uint(d>>4))
			}
			radix = uint8(hd & 0xF)
			bit, idx = 1<<radix, uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix)))&0xF
			continue
		}
		if (*kv[K, N])(item.ptr).k != key { // key missing
			return false
		}
		l.pmap &^= bit
		l.tmap &^= bit
		t.len--
		t.dep -= uint64(d)
		path[d].link = nil
		count := uint8(bits.OnesCount32(l.pmap))
		// unlink empty branches up to the root
		for count == 0 && d != 0 {
			l.ptr = nil
			d--
			l, radix = path[d].link, path[d].radix
			path[d].link = nil
			bit, idx = 1<<radix, uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix)))&0xF
			l.pmap &^= bit
			l.tmap &^= bit
			count = uint8(bits.OnesCount32(l.pmap))
		}
		// shift items back
		src := l.ptr
		if count%4 == 0 && d != 0 {
			l.ptr = newLinkArray(count)
		}
		for before := uint8(0); before < idx; before++ {
			*linkAt(l.ptr, before) = *linkAt(src, before)
		}
		for after := idx; after < count; after++ {
			*linkAt(l.ptr, after) = *linkAt(src, after+1)
		}
		if l.ptr == src { // release the vacated tail slot
			*linkAt(l.ptr, count) = link{}
		}
		// replace single-valued branches with key-nodes up to the root
		for count == 1 && l.pmap == l.tmap && d != 0 {
			e := (*[1]link)(l.ptr)[0].ptr // *kv
			t.dep--
			d--
			l, radix = path[d].link, path[d].radix
			path[d].link = nil
			bit, idx = 1<<radix, uint8(bits.OnesCount32(l.pmap&^(^uint32(0)<<radix)))&0xF
			l.tmap |= bit
			*linkAt(l.ptr, idx) = link{ptr: e}
			count = uint8(bits.OnesCount32(l.pmap))
		}
		return true // item removed
	}
	return false // item missing
}

// all ranges over the nodes in t, applying the do callback to each node until
// the callback returns false or all nodes have been visited. The iteration order
// is not randomized for each call.
func (t table[K, N]) all(do func(K, *N) bool) {
	tableScan(&t.link, do)
}

func tableScan[K comparable, N any](l *link, do func(K, *N) bool) bool {
	pmap, tmap := l.pmap, l.tmap
	count := uint8(bits.OnesCount32(pmap))
	for i := uint8(0); i < count; i++ {
		bit := uint32(1) << uint8(bits.TrailingZeros32(pmap))
		item := linkAt(l.ptr, i)
		if tmap&bit != 0 {
			e := (*kv[K, N])(item.ptr)
			if !do(e.k, &e.n) {
				return false
			}
		} else if !tableScan(item, do) {
			return false
		}
		pmap &^= bit
	}
	return true
}
