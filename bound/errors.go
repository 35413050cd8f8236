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

package bound

import "errors"

var (
	// ErrInvalidAddr is returned for addresses that cannot be bound.
	ErrInvalidAddr = errors.New("invalid address")

	// ErrSocketBound is returned when binding a socket that is already bound.
	ErrSocketBound = errors.New("socket already bound")

	// ErrNotBound is returned for sockets that are not in the table.
	ErrNotBound = errors.New("socket not bound")

	// ErrAddrInUse is returned when the address itself has an incompatible socket.
	ErrAddrInUse = errors.New("address in use")

	// ErrShadowAddrInUse is returned when a less specific address has an
	// incompatible socket.
	ErrShadowAddrInUse = errors.New("less specific address in use")

	// ErrShadowerInUse is returned when a more specific address has an
	// incompatible socket.
	ErrShadowerInUse = errors.New("more specific address in use")

	// ErrSharingIncompatible is returned when changing the sharing mode of a
	// socket that shares its address.
	ErrSharingIncompatible = errors.New("sharing mode of a shared address cannot change")
)

// Outcome returns a short label for the result of a table operation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAddr):
		return "invalid_addr"
	case errors.Is(err, ErrSocketBound):
		return "socket_bound"
	case errors.Is(err, ErrNotBound):
		return "not_bound"
	case errors.Is(err, ErrAddrInUse):
		return "addr_in_use"
	case errors.Is(err, ErrShadowAddrInUse):
		return "shadow_addr_in_use"
	case errors.Is(err, ErrShadowerInUse):
		return "shadower_in_use"
	case errors.Is(err, ErrSharingIncompatible):
		return "sharing_incompatible"
	default:
		return "error"
	}
}
