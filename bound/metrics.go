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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var bindAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "socketmap_bind_attempts_total",
	Help: "Number of bind and connect attempts, by address kind and outcome",
}, []string{"table", "kind", "outcome"})

var boundAddrs = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "socketmap_bound_addrs",
	Help: "Number of addresses with at least one bound socket",
}, []string{"table", "kind"})

var boundSockets = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "socketmap_bound_sockets",
	Help: "Number of bound sockets",
}, []string{"table", "kind"})

var sharingChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "socketmap_sharing_changes_total",
	Help: "Number of sharing mode changes, by new mode and outcome",
}, []string{"table", "sharing", "outcome"})
