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

import (
	"fmt"
	"strings"
)

// SocketID identifies a socket.
type SocketID uint64

// Sharing is the address sharing mode of a socket.
type Sharing uint8

const (
	// Exclusive sockets conflict with every other socket on the same, a more
	// specific, or a less specific address.
	Exclusive Sharing = iota
	// ReusePort sockets may share addresses with other ReusePort sockets.
	ReusePort
)

func (s Sharing) String() string {
	switch s {
	case Exclusive:
		return "exclusive"
	case ReusePort:
		return "reuseport"
	default:
		return fmt.Sprintf("Sharing(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sharing) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sharing) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "exclusive", "":
		*s = Exclusive
	case "reuseport", "reuse-port":
		*s = ReusePort
	default:
		return fmt.Errorf("unknown sharing mode %q", text)
	}
	return nil
}

func compatible(a, b Sharing) bool { return a == ReusePort && b == ReusePort }

// addrState is the set of sockets bound to one address. Its tag is the sharing
// mode, so the descendant counts of an address tell how many exclusive and
// reuseport addresses are bound more specifically.
type addrState struct {
	sharing Sharing
	ids     []SocketID
}

func (s addrState) Tag() Sharing { return s.sharing }
