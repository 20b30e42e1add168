// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dacsim

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	conns    prometheus.Gauge
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		conns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dacsim",
			Name:      "active_connections",
			Help:      "Number of opened control connections.",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dacsim",
				Name:      "requests_total",
				Help:      "Number of served requests, by kind.",
			},
			[]string{"kind"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dacsim",
				Name:      "errors_total",
				Help:      "Number of requests answered with a non-zero status, by status.",
			},
			[]string{"status"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dacsim",
				Name:      "memory_bytes_total",
				Help:      "Number of memory bytes transferred, by direction.",
			},
			[]string{"dir"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.conns, m.requests, m.errors, m.bytes)
	}
	return m
}
