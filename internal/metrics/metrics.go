// The MIT License
//
// Copyright (c) 2017-2018 by the author(s)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//
// Author(s):
//   - Andreas Oeldemann <andreas.oeldemann@tum.de>
//
// Package metrics exposes the benchmarking core's internal counters as
// Prometheus collectors, following the counter/registration style of the
// pack's exporters (yuuki-rdma_exporter's collector.go). The outer pipe
// (out of scope per spec §1) reads these for health output; the core
// itself only increments them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the counters this core increments during a run. A fresh
// Registry is independent of prometheus's global DefaultRegisterer, the
// same isolation yuuki-rdma_exporter's cmd/rdma_exporter/main.go gives
// its own exporter registry.
type Registry struct {
	BackToBackIterations prometheus.Counter
	AddressRefreshBatches prometheus.Counter
	MacLearningFramesSent prometheus.Counter
}

// NewRegistry constructs and registers the core's counters against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		BackToBackIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rfc2544",
			Subsystem: "backtoback",
			Name:      "iterations_total",
			Help:      "Number of binary-search iterations run by the back-to-back controller.",
		}),
		AddressRefreshBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rfc2544",
			Subsystem: "learning",
			Name:      "address_refresh_batches_total",
			Help:      "Number of address-refresh batches dispatched by the scheduler.",
		}),
		MacLearningFramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rfc2544",
			Subsystem: "learning",
			Name:      "mac_learning_frames_sent_total",
			Help:      "Number of MAC-learning frames transmitted.",
		}),
	}
	reg.MustRegister(m.BackToBackIterations, m.AddressRefreshBatches, m.MacLearningFramesSent)
	return m
}

// noop satisfies callers that run without a configured Registry (e.g. unit
// tests), so increments never need a nil check at call sites.
var noop = &Registry{
	BackToBackIterations:  prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_backtoback"}),
	AddressRefreshBatches: prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_refresh"}),
	MacLearningFramesSent: prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_maclearning"}),
}

// Noop returns a Registry whose counters are never scraped, for callers
// that do not want to wire Prometheus at all.
func Noop() *Registry { return noop }
