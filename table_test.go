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
	"strconv"
	"testing"
)

func TestTableUpsert(t *testing.T) {
	const N = 100 * 1000
	tab := newTable[int, int]()

	for test := 0; test < 3; test++ {
		for i := 0; i < N; i++ {
			n, found := tab.upsert(i)
			if found {
				t.Fatalf("key already present (i=%d)", i)
			}
			*n = i
		}
		for i := 0; i < N; i++ {
			if n := tab.ptr(i); n == nil {
				t.Fatalf("node not set (i=%d)", i)
			} else if *n != i {
				t.Fatalf("node invalid (i=%d, n=%d)", i, *n)
			}
			if n, found := tab.upsert(i); !found || *n != i {
				t.Fatalf("upsert missed existing key (i=%d)", i)
			}
		}
		if d := tab.Dep(); d <= 1 {
			t.Fatalf("depth invalid (d=%v)", d)
		}
		var visited int
		tab.all(func(k int, n *int) bool {
			if k != *n {
				t.Fatalf("key %d holds node %d", k, *n)
			}
			visited++
			return true
		})
		if visited != N {
			t.Fatalf("invalid count %d", visited)
		}
		if l := tab.Len(); l != N {
			t.Fatalf("invalid len %d", l)
		}

		for i := 0; i < N/2; i++ {
			if !tab.del(i) {
				t.Fatalf("key not deleted (i=%d)", i)
			}
		}
		for i := 0; i < N/2; i++ {
			if n := tab.ptr(i); n != nil {
				t.Fatalf("node not deleted (i=%d)", i)
			}
			if tab.del(i) {
				t.Fatalf("key deleted twice (i=%d)", i)
			}
		}
		for i := N / 2; i < N; i++ {
			if n := tab.ptr(i); n == nil {
				t.Fatalf("node not set (i=%d)", i)
			} else if *n != i {
				t.Fatalf("node invalid (i=%d, n=%d)", i, *n)
			}
		}
		if l := tab.Len(); l != N/2 {
			t.Fatalf("invalid len %d", l)
		}

		for i := 0; i < N; i++ {
			tab.del(i)
		}
		if l := tab.Len(); l != 0 {
			t.Fatalf("invalid len %d", l)
		}
		if d := tab.Dep(); d != 0 {
			t.Fatalf("depth invalid (d=%v)", d)
		}
	}
}

func TestTableStablePointers(t *testing.T) {
	const N = 10 * 1000
	tab := newTable[string, int]()
	ptrs := make([]*int, N)
	for i := range ptrs {
		ptrs[i], _ = tab.upsert(strconv.Itoa(i))
		*ptrs[i] = i
	}
	// Deleting every other key collapses and shrinks branches around the rest.
	for i := 0; i < N; i += 2 {
		tab.del(strconv.Itoa(i))
	}
	for i := 1; i < N; i += 2 {
		if p := tab.ptr(strconv.Itoa(i)); p != ptrs[i] {
			t.Fatalf("node moved (i=%d)", i)
		}
	}
}

func TestTableFullCollisions(t *testing.T) {
	const N = 300
	for rehashes := uint(1); rehashes <= 2; rehashes++ {
		// Every key shares all 64 hash bits until it has been rehashed rehashes times.
		tab := newTableHash[int, int](func(k int, iter uint) uint64 {
			if iter < rehashes {
				return 0
			}
			return uint64(k)
		})
		ptrs := make([]*int, N)
		for i := 0; i < N; i++ {
			n, found := tab.upsert(i)
			if found {
				t.Fatalf("key already present (rehashes=%d, i=%d)", rehashes, i)
			}
			*n = i
			ptrs[i] = n
		}
		if d := tab.Dep(); d < float64(16*rehashes) {
			t.Fatalf("depth invalid (rehashes=%d, d=%v)", rehashes, d)
		}
		for i := 0; i < N; i++ {
			if n := tab.ptr(i); n != ptrs[i] || *n != i {
				t.Fatalf("node invalid (rehashes=%d, i=%d)", rehashes, i)
			}
			if n, found := tab.upsert(i); !found || n != ptrs[i] {
				t.Fatalf("upsert missed existing key (rehashes=%d, i=%d)", rehashes, i)
			}
		}
		if tab.ptr(N) != nil {
			t.Fatalf("missing key found (rehashes=%d)", rehashes)
		}
		seen := make(map[int]bool)
		tab.all(func(k int, n *int) bool {
			if k != *n || seen[k] {
				t.Fatalf("invalid visit (rehashes=%d, k=%d, n=%d)", rehashes, k, *n)
			}
			seen[k] = true
			return true
		})
		if len(seen) != N {
			t.Fatalf("invalid count %d (rehashes=%d)", len(seen), rehashes)
		}

		for i := 0; i < N-1; i++ {
			if !tab.del(i) {
				t.Fatalf("key not deleted (rehashes=%d, i=%d)", rehashes, i)
			}
			if tab.del(i) {
				t.Fatalf("key deleted twice (rehashes=%d, i=%d)", rehashes, i)
			}
			for j := i + 1; j < N; j++ {
				if tab.ptr(j) != ptrs[j] {
					t.Fatalf("node moved (rehashes=%d, i=%d, j=%d)", rehashes, i, j)
				}
			}
		}
		// The last key collapses back into the root level.
		if l, d := tab.Len(), tab.Dep(); l != 1 || d != 0 {
			t.Fatalf("invalid len %d or depth %v (rehashes=%d)", l, d, rehashes)
		}
		if !tab.del(N - 1) {
			t.Fatalf("last key not deleted (rehashes=%d)", rehashes)
		}
		if tab.Len() != 0 || tab.pmap != 0 {
			t.Fatalf("table not empty (rehashes=%d)", rehashes)
		}
	}
}

func TestTableAllStops(t *testing.T) {
	tab := newTable[int, int]()
	for i := 0; i < 100; i++ {
		tab.upsert(i)
	}
	var visited int
	tab.all(func(int, *int) bool {
		visited++
		return visited < 10
	})
	if visited != 10 {
		t.Fatalf("invalid count %d", visited)
	}
}

func BenchmarkTableUpsert(b *testing.B) {
	tab := newTable[int, int]()
	for i := 0; i < b.N; i++ {
		tab.upsert(i)
	}
}

func BenchmarkTablePtr(b *testing.B) {
	const N = 100 * 1000
	tab := newTable[int, int]()
	for i := 0; i < N; i++ {
		tab.upsert(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tab.ptr(i % N)
	}
}
