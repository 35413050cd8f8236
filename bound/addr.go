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
	"net/netip"
)

// DeviceID identifies a network device. The zero DeviceID means "any device".
type DeviceID uint32

// ListenerAddr is the local address of a listening datagram socket. An invalid or
// unspecified IP binds the socket to every local address.
type ListenerAddr struct {
	IP     netip.Addr
	Port   uint16
	Device DeviceID
}

// ConnAddr is the address of a connected datagram socket.
type ConnAddr struct {
	Local  netip.AddrPort
	Remote netip.AddrPort
	Device DeviceID
}

// AddrVec is a listener or connection address. It is the key of the bound socket
// table; connections shadow the listeners on their local address, and specific
// listeners shadow wildcard listeners on the same port.
type AddrVec struct {
	LocalIP    netip.Addr
	LocalPort  uint16
	RemoteIP   netip.Addr
	RemotePort uint16
	Device     DeviceID
}

// Vec validates l and returns it as an AddrVec.
func (l ListenerAddr) Vec() (AddrVec, error) {
	if l.Port == 0 {
		return AddrVec{}, fmt.Errorf("listener port 0: %w", ErrInvalidAddr)
	}
	return AddrVec{LocalIP: normalizeIP(l.IP), LocalPort: l.Port, Device: l.Device}, nil
}

// Vec validates c and returns it as an AddrVec.
func (c ConnAddr) Vec() (AddrVec, error) {
	local, remote := normalizeIP(c.Local.Addr()), normalizeIP(c.Remote.Addr())
	switch {
	case !local.IsValid() || !remote.IsValid():
		return AddrVec{}, fmt.Errorf("connection %v -> %v needs specified addresses: %w", c.Local, c.Remote, ErrInvalidAddr)
	case local.Is4() != remote.Is4():
		return AddrVec{}, fmt.Errorf("connection %v -> %v mixes address families: %w", c.Local, c.Remote, ErrInvalidAddr)
	case c.Local.Port() == 0 || c.Remote.Port() == 0:
		return AddrVec{}, fmt.Errorf("connection %v -> %v uses port 0: %w", c.Local, c.Remote, ErrInvalidAddr)
	}
	return AddrVec{
		LocalIP:    local,
		LocalPort:  c.Local.Port(),
		RemoteIP:   remote,
		RemotePort: c.Remote.Port(),
		Device:     c.Device,
	}, nil
}

// normalizeIP maps unspecified addresses to the wildcard and IPv4-mapped IPv6
// addresses to IPv4.
func normalizeIP(ip netip.Addr) netip.Addr {
	if !ip.IsValid() || ip.IsUnspecified() {
		return netip.Addr{}
	}
	return ip.Unmap().WithZone("")
}

// IsConn reports whether v is a connection address.
func (v AddrVec) IsConn() bool { return v.RemoteIP.IsValid() }

// Kind returns "conn" or "listener".
func (v AddrVec) Kind() string {
	if v.IsConn() {
		return "conn"
	}
	return "listener"
}

// Listener returns the listener address on v's local address and device.
func (v AddrVec) Listener() AddrVec {
	return AddrVec{LocalIP: v.LocalIP, LocalPort: v.LocalPort, Device: v.Device}
}

// Shadows returns every strictly less specific address than v: for a connection,
// the same connection on any device and the listeners that could receive its
// traffic; for a listener, the listeners obtained by dropping its IP, its device,
// or both.
func (v AddrVec) Shadows() []AddrVec {
	shadows := make([]AddrVec, 0, 5)
	l := v.Listener()
	if v.IsConn() {
		if v.Device != 0 {
			anyDev := v
			anyDev.Device = 0
			shadows = append(shadows, anyDev)
		}
		shadows = append(shadows, l)
	}
	if l.Device != 0 {
		anyDev := l
		anyDev.Device = 0
		shadows = append(shadows, anyDev)
	}
	if l.LocalIP.IsValid() {
		wildcard := l
		wildcard.LocalIP = netip.Addr{}
		shadows = append(shadows, wildcard)
		if wildcard.Device != 0 {
			wildcard.Device = 0
			shadows = append(shadows, wildcard)
		}
	}
	return shadows
}

func (v AddrVec) String() string {
	local := "*"
	if v.LocalIP.Is4() {
		local = v.LocalIP.String()
	} else if v.LocalIP.Is6() {
		local = "[" + v.LocalIP.String() + "]"
	}
	s := fmt.Sprintf("%s:%d", local, v.LocalPort)
	if v.IsConn() {
		s += " -> " + netip.AddrPortFrom(v.RemoteIP, v.RemotePort).String()
	}
	if v.Device != 0 {
		s += fmt.Sprintf(" dev %d", v.Device)
	}
	return s
}
