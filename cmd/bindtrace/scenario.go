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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/wdamron/socketmap/bound"
	"gopkg.in/yaml.v3"
)

type scenario struct {
	Name  string `yaml:"name"`
	Steps []step `yaml:"steps"`
}

type step struct {
	Op      string           `yaml:"op"`
	Socket  bound.SocketID   `yaml:"socket"`
	Local   string           `yaml:"local"`
	Remote  string           `yaml:"remote"`
	Device  bound.DeviceID   `yaml:"device"`
	Sharing bound.Sharing    `yaml:"sharing"`
	Expect  string           `yaml:"expect"`
	Want    []bound.SocketID `yaml:"want"`

	local, remote netip.AddrPort
}

const (
	opBind       = "bind"
	opConnect    = "connect"
	opUnbind     = "unbind"
	opSetSharing = "set-sharing"
	opLookup     = "lookup"
)

func loadScenario(path string) (*scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := parseScenario(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}

func parseScenario(b []byte) (*scenario, error) {
	var sc scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	for i := range sc.Steps {
		if err := sc.Steps[i].parse(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

func (st *step) parse() error {
	var err error
	switch st.Op {
	case opBind:
		st.local, err = parseAddrPort(st.Local)
	case opConnect, opLookup:
		if st.local, err = parseAddrPort(st.Local); err != nil {
			return err
		}
		st.remote, err = parseAddrPort(st.Remote)
	case opUnbind, opSetSharing:
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return err
}

// parseAddrPort parses "ip:port", "[ip6]:port", or "*:port" for the wildcard address.
func parseAddrPort(s string) (netip.AddrPort, error) {
	if port, ok := strings.CutPrefix(s, "*:"); ok {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return netip.AddrPort{}, fmt.Errorf("invalid port in %q: %w", s, err)
		}
		return netip.AddrPortFrom(netip.Addr{}, uint16(p)), nil
	}
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid address: %w", err)
	}
	return ap, nil
}

// apply runs st against tab and returns its outcome label and a description.
func (st *step) apply(tab *bound.Table) (outcome, desc string, ids []bound.SocketID) {
	var err error
	switch st.Op {
	case opBind:
		desc = fmt.Sprintf("socket %d on %s (%v)", st.Socket, st.Local, st.Sharing)
		err = tab.BindListener(st.Socket, bound.ListenerAddr{IP: st.local.Addr(), Port: st.local.Port(), Device: st.Device}, st.Sharing)
	case opConnect:
		desc = fmt.Sprintf("socket %d %s -> %s (%v)", st.Socket, st.Local, st.Remote, st.Sharing)
		err = tab.Connect(st.Socket, bound.ConnAddr{Local: st.local, Remote: st.remote, Device: st.Device}, st.Sharing)
	case opUnbind:
		desc = fmt.Sprintf("socket %d", st.Socket)
		err = tab.Unbind(st.Socket)
	case opSetSharing:
		desc = fmt.Sprintf("socket %d to %v", st.Socket, st.Sharing)
		err = tab.SetSharing(st.Socket, st.Sharing)
	case opLookup:
		var addr bound.AddrVec
		var ok bool
		ids, addr, ok = tab.Lookup(st.local, st.remote, st.Device)
		if !ok {
			return "not_found", fmt.Sprintf("%s -> %s", st.Remote, st.Local), nil
		}
		return "ok", fmt.Sprintf("%s -> %s: %v at %v", st.Remote, st.Local, ids, addr), ids
	}
	return bound.Outcome(err), desc, nil
}

func (st *step) matches(outcome string, ids []bound.SocketID) bool {
	if st.Expect != "" && st.Expect != outcome {
		return false
	}
	if st.Op == opLookup && st.Want != nil && !slices.Equal(st.Want, ids) {
		return false
	}
	return true
}

type replayOptions struct {
	FailFast bool
	Quiet    bool
	Logger   *slog.Logger
}

type replayResult struct {
	Steps      int
	Mismatches int
}

func replay(sc *scenario, w io.Writer, opts replayOptions) replayResult {
	tab := bound.New(&bound.Options{Name: sc.Name, Logger: opts.Logger})
	var res replayResult

	fmt.Fprintf(w, "scenario %s\n", sc.Name)
	for i := range sc.Steps {
		st := &sc.Steps[i]
		outcome, desc, ids := st.apply(tab)
		res.Steps++
		mark := ""
		if !st.matches(outcome, ids) {
			res.Mismatches++
			mark = " (unexpected)"
		}
		if !opts.Quiet || mark != "" {
			fmt.Fprintf(w, "%4d %-11s %s => %s%s\n", i+1, st.Op, desc, outcome, mark)
		}
		if mark != "" && opts.FailFast {
			break
		}
	}
	dump(tab, w)
	return res
}

type dumpEntry struct {
	addr    bound.AddrVec
	sharing bound.Sharing
	ids     []bound.SocketID
}

func dump(tab *bound.Table, w io.Writer) {
	var entries []dumpEntry
	tab.All(func(addr bound.AddrVec, sharing bound.Sharing, ids []bound.SocketID) bool {
		entries = append(entries, dumpEntry{addr, sharing, ids})
		return true
	})
	slices.SortFunc(entries, func(a, b dumpEntry) int {
		return strings.Compare(a.addr.String(), b.addr.String())
	})

	fmt.Fprintf(w, "bound: %d socket(s) on %d address(es)\n", tab.Len(), tab.Addrs())
	for _, e := range entries {
		fmt.Fprintf(w, "  %-40s %-9v %v", e.addr, e.sharing, e.ids)
		counts := tab.DescendantCounts(e.addr)
		if len(counts) > 0 {
			fmt.Fprintf(w, " shadowed by exclusive=%d reuseport=%d", counts[bound.Exclusive], counts[bound.ReusePort])
		}
		fmt.Fprintln(w)
	}
}
