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
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listener(t *testing.T, ip string, port uint16, dev DeviceID) AddrVec {
	t.Helper()
	l := ListenerAddr{Port: port, Device: dev}
	if ip != "" {
		l.IP = netip.MustParseAddr(ip)
	}
	v, err := l.Vec()
	require.NoError(t, err)
	return v
}

func conn(t *testing.T, local, remote string, dev DeviceID) AddrVec {
	t.Helper()
	v, err := ConnAddr{
		Local:  netip.MustParseAddrPort(local),
		Remote: netip.MustParseAddrPort(remote),
		Device: dev,
	}.Vec()
	require.NoError(t, err)
	return v
}

func TestListenerShadows(t *testing.T) {
	assert.Empty(t, listener(t, "", 53, 0).Shadows())
	assert.ElementsMatch(t, []AddrVec{listener(t, "", 53, 0)}, listener(t, "", 53, 2).Shadows())
	assert.ElementsMatch(t, []AddrVec{listener(t, "", 53, 0)}, listener(t, "10.0.0.1", 53, 0).Shadows())
	assert.ElementsMatch(t, []AddrVec{
		listener(t, "10.0.0.1", 53, 0),
		listener(t, "", 53, 2),
		listener(t, "", 53, 0),
	}, listener(t, "10.0.0.1", 53, 2).Shadows())
}

func TestConnShadows(t *testing.T) {
	assert.ElementsMatch(t, []AddrVec{
		listener(t, "10.0.0.1", 5000, 0),
		listener(t, "", 5000, 0),
	}, conn(t, "10.0.0.1:5000", "10.0.0.2:53", 0).Shadows())

	assert.ElementsMatch(t, []AddrVec{
		conn(t, "10.0.0.1:5000", "10.0.0.2:53", 0),
		listener(t, "10.0.0.1", 5000, 3),
		listener(t, "10.0.0.1", 5000, 0),
		listener(t, "", 5000, 3),
		listener(t, "", 5000, 0),
	}, conn(t, "10.0.0.1:5000", "10.0.0.2:53", 3).Shadows())
}

func TestShadowsTransitiveIrreflexive(t *testing.T) {
	addrs := []AddrVec{
		listener(t, "", 80, 0),
		listener(t, "", 80, 1),
		listener(t, "192.0.2.1", 80, 0),
		listener(t, "192.0.2.1", 80, 1),
		listener(t, "2001:db8::1", 80, 1),
		conn(t, "192.0.2.1:80", "198.51.100.7:4000", 0),
		conn(t, "192.0.2.1:80", "198.51.100.7:4000", 1),
		conn(t, "[2001:db8::1]:80", "[2001:db8::2]:4000", 1),
	}
	for _, a := range addrs {
		shadows := a.Shadows()
		assert.NotContains(t, shadows, a, "%v shadows itself", a)
		for _, b := range shadows {
			assert.Subset(t, shadows, b.Shadows(), "%v shadows %v but not all of its shadows", a, b)
		}
	}
}

func TestAddrNormalization(t *testing.T) {
	assert.Equal(t, listener(t, "", 53, 0), listener(t, "0.0.0.0", 53, 0))
	assert.Equal(t, listener(t, "", 53, 0), listener(t, "::", 53, 0))
	assert.Equal(t, listener(t, "10.0.0.1", 53, 0), listener(t, "::ffff:10.0.0.1", 53, 0))
	assert.False(t, listener(t, "", 53, 0).IsConn())
	assert.True(t, conn(t, "10.0.0.1:1", "10.0.0.2:2", 0).IsConn())
}

func TestInvalidAddrs(t *testing.T) {
	_, err := ListenerAddr{}.Vec()
	assert.ErrorIs(t, err, ErrInvalidAddr)

	for _, c := range []ConnAddr{
		{Local: netip.MustParseAddrPort("0.0.0.0:5000"), Remote: netip.MustParseAddrPort("10.0.0.2:53")},
		{Local: netip.MustParseAddrPort("10.0.0.1:5000"), Remote: netip.MustParseAddrPort("[2001:db8::1]:53")},
		{Local: netip.MustParseAddrPort("10.0.0.1:0"), Remote: netip.MustParseAddrPort("10.0.0.2:53")},
		{Local: netip.MustParseAddrPort("10.0.0.1:5000")},
	} {
		_, err := c.Vec()
		assert.ErrorIs(t, err, ErrInvalidAddr, "%v -> %v", c.Local, c.Remote)
	}
}

func TestAddrString(t *testing.T) {
	assert.Equal(t, "*:53", listener(t, "", 53, 0).String())
	assert.Equal(t, "10.0.0.1:53 dev 2", listener(t, "10.0.0.1", 53, 2).String())
	assert.Equal(t, "[2001:db8::1]:53", listener(t, "2001:db8::1", 53, 0).String())
	assert.Equal(t, "10.0.0.1:5000 -> 10.0.0.2:53", conn(t, "10.0.0.1:5000", "10.0.0.2:53", 0).String())
}
