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

// Package bound implements a table of bound datagram sockets on top of a
// socketmap.SocketMap, with conflict detection between sockets bound to
// overlapping addresses and demultiplexing of incoming datagrams.
package bound

import (
	"fmt"
	"log/slog"
	"net/netip"
	"slices"
	"sync"

	"github.com/wdamron/socketmap"
)

// Options configures a Table.
type Options struct {
	// Name labels the table's metrics.
	Name string

	// Logger receives bind and conflict events. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the options used when New is given nil.
func DefaultOptions() *Options {
	return &Options{
		Name: "default",
	}
}

// Table tracks the addresses of bound sockets. It is safe for concurrent use.
type Table struct {
	name string
	log  *slog.Logger

	mu      sync.RWMutex
	addrs   *socketmap.SocketMap[AddrVec, addrState, Sharing]
	sockets map[SocketID]AddrVec
}

// New returns an empty table.
func New(opts *Options) *Table {
	if opts == nil {
		opts = DefaultOptions()
	}
	name := opts.Name
	if name == "" {
		name = "default"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		name:    name,
		log:     logger.With("system", "socketmap", "table", name),
		addrs:   socketmap.New[AddrVec, addrState, Sharing](),
		sockets: make(map[SocketID]AddrVec),
	}
}

// BindListener binds socket id to the listener address l.
func (t *Table) BindListener(id SocketID, l ListenerAddr, sharing Sharing) error {
	addr, err := l.Vec()
	if err != nil {
		bindAttempts.WithLabelValues(t.name, "listener", Outcome(err)).Inc()
		return err
	}
	return t.bind(id, addr, sharing)
}

// Connect binds socket id to the connection address c.
func (t *Table) Connect(id SocketID, c ConnAddr, sharing Sharing) error {
	addr, err := c.Vec()
	if err != nil {
		bindAttempts.WithLabelValues(t.name, "conn", Outcome(err)).Inc()
		return err
	}
	return t.bind(id, addr, sharing)
}

func (t *Table) bind(id SocketID, addr AddrVec, sharing Sharing) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.insert(id, addr, sharing)
	bindAttempts.WithLabelValues(t.name, addr.Kind(), Outcome(err)).Inc()
	if err != nil {
		t.log.Debug("bind failed", "socket", id, "addr", addr, "sharing", sharing, "err", err)
		return fmt.Errorf("bind socket %d to %v: %w", id, addr, err)
	}
	t.log.Debug("socket bound", "socket", id, "addr", addr, "sharing", sharing)
	return nil
}

func (t *Table) insert(id SocketID, addr AddrVec, sharing Sharing) error {
	if prev, ok := t.sockets[id]; ok {
		return fmt.Errorf("socket %d bound to %v: %w", id, prev, ErrSocketBound)
	}
	e := t.addrs.Entry(addr)
	if o, ok := e.Occupied(); ok {
		if !compatible(o.Get().sharing, sharing) {
			return ErrAddrInUse
		}
		// Sockets already at addr passed the shadow checks with the same
		// sharing mode.
		o.Update(func(s *addrState) { s.ids = append(s.ids, id) })
	} else {
		if err := t.checkShadows(addr, sharing); err != nil {
			return err
		}
		v, _ := e.Vacant()
		v.Insert(addrState{sharing: sharing, ids: []SocketID{id}})
		boundAddrs.WithLabelValues(t.name, addr.Kind()).Inc()
	}
	t.sockets[id] = addr
	boundSockets.WithLabelValues(t.name, addr.Kind()).Inc()
	return nil
}

// checkShadows checks a socket with the given sharing mode against the sockets bound
// to addresses less specific and more specific than addr.
func (t *Table) checkShadows(addr AddrVec, sharing Sharing) error {
	for _, shadow := range addr.Shadows() {
		if s, ok := t.addrs.Get(shadow); ok && !compatible(s.sharing, sharing) {
			return fmt.Errorf("%v: %w", shadow, ErrShadowAddrInUse)
		}
	}
	if sharing == Exclusive {
		if t.addrs.HasDescendants(addr) {
			return ErrShadowerInUse
		}
	} else if t.addrs.DescendantCount(addr, Exclusive) > 0 {
		return ErrShadowerInUse
	}
	return nil
}

// Unbind removes socket id from the table.
func (t *Table) Unbind(id SocketID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	addr, ok := t.sockets[id]
	if !ok {
		return fmt.Errorf("unbind socket %d: %w", id, ErrNotBound)
	}
	o, ok := t.addrs.Entry(addr).Occupied()
	if !ok {
		panic(fmt.Sprintf("bound: socket %d has no state at %v", id, addr))
	}
	if len(o.Get().ids) == 1 {
		o.Remove()
		boundAddrs.WithLabelValues(t.name, addr.Kind()).Dec()
	} else {
		o.Update(func(s *addrState) {
			s.ids = slices.DeleteFunc(s.ids, func(other SocketID) bool { return other == id })
		})
	}
	delete(t.sockets, id)
	boundSockets.WithLabelValues(t.name, addr.Kind()).Dec()
	t.log.Debug("socket unbound", "socket", id, "addr", addr)
	return nil
}

// SetSharing changes the sharing mode of socket id. Only a socket that is alone at
// its address can change its mode; becoming exclusive fails if other sockets are
// bound to shadowing or shadowed addresses.
func (t *Table) SetSharing(id SocketID, sharing Sharing) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.setSharing(id, sharing)
	sharingChanges.WithLabelValues(t.name, sharing.String(), Outcome(err)).Inc()
	if err != nil {
		t.log.Debug("sharing change failed", "socket", id, "sharing", sharing, "err", err)
		return fmt.Errorf("set sharing of socket %d to %v: %w", id, sharing, err)
	}
	return nil
}

func (t *Table) setSharing(id SocketID, sharing Sharing) error {
	addr, ok := t.sockets[id]
	if !ok {
		return ErrNotBound
	}
	o, ok := t.addrs.Entry(addr).Occupied()
	if !ok {
		panic(fmt.Sprintf("bound: socket %d has no state at %v", id, addr))
	}
	state := o.Get()
	if state.sharing == sharing {
		return nil
	}
	if len(state.ids) > 1 {
		return ErrSharingIncompatible
	}
	if sharing == Exclusive {
		if err := t.checkShadows(addr, sharing); err != nil {
			return err
		}
	}
	o.Update(func(s *addrState) { s.sharing = sharing })
	t.log.Debug("sharing changed", "socket", id, "addr", addr, "sharing", sharing)
	return nil
}

// Addr returns the address socket id is bound to.
func (t *Table) Addr(id SocketID) (AddrVec, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.sockets[id]
	return addr, ok
}

// Lookup returns the sockets that should receive a datagram sent from remote to
// local on device dev, picking the most specific bound address: a connection on
// dev, a connection on any device, then listeners on local's IP and on the
// wildcard address, each on dev before any device.
func (t *Table) Lookup(local, remote netip.AddrPort, dev DeviceID) ([]SocketID, AddrVec, bool) {
	conn := AddrVec{
		LocalIP:    normalizeIP(local.Addr()),
		LocalPort:  local.Port(),
		RemoteIP:   normalizeIP(remote.Addr()),
		RemotePort: remote.Port(),
	}
	var candidates []AddrVec
	if conn.IsConn() {
		candidates = append(candidates, conn)
	}
	if listener := conn.Listener(); listener.LocalIP.IsValid() {
		candidates = append(candidates, listener)
	}
	candidates = append(candidates, AddrVec{LocalPort: local.Port()})

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, candidate := range candidates {
		if dev != 0 {
			onDev := candidate
			onDev.Device = dev
			if s, ok := t.addrs.Get(onDev); ok {
				return slices.Clone(s.ids), onDev, true
			}
		}
		if s, ok := t.addrs.Get(candidate); ok {
			return slices.Clone(s.ids), candidate, true
		}
	}
	return nil, AddrVec{}, false
}

// DescendantCounts returns the number of addresses bound more specifically than
// addr, by sharing mode.
func (t *Table) DescendantCounts(addr AddrVec) map[Sharing]uint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := make(map[Sharing]uint)
	for _, tc := range t.addrs.DescendantCounts(addr) {
		counts[tc.Tag] = tc.Count
	}
	return counts
}

// Len returns the number of bound sockets.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sockets)
}

// Addrs returns the number of addresses with bound sockets.
func (t *Table) Addrs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.addrs.Len()
}

// All calls do for every bound address until do returns false. The table must not
// be modified from within do.
func (t *Table) All(do func(addr AddrVec, sharing Sharing, ids []SocketID) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.addrs.All(func(addr AddrVec, s addrState) bool {
		return do(addr, s.sharing, slices.Clone(s.ids))
	})
}
