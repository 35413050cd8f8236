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

// Shadows is implemented by keys whose values can "shadow" other keys of the same
// type. For any key s, if t appears in s.Shadows(), then s shadows t.
//
// The relation must be:
//
//  1. transitive: if s.Shadows() yields t, and t.Shadows() yields u, then s.Shadows()
//     must also yield u.
//  2. irreflexive: s must not shadow itself.
//
// Shadows must return the same finite set of keys on every call, independent of any
// map state. The order of the returned keys is unspecified.
type Shadows[K any] interface {
	Shadows() []K
}

// Key is the constraint on socket map keys.
type Key[K any] interface {
	comparable
	Shadows[K]
}

// Tagged is implemented by values that summarize themselves as a tag, e.g. even or
// odd for an integer-like type. Tag must be deterministic: calling it on the same
// value always returns the same tag.
type Tagged[T comparable] interface {
	Tag() T
}
