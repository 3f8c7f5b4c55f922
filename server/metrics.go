// metrics.go - Prometheus instrumentation
// Copyright (C) 2026  The Greenwood Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "greenwood"

type metrics struct {
	registry *prometheus.Registry

	connections   prometheus.Counter
	transactions  *prometheus.CounterVec
	onlineUsers   prometheus.Gauge
	transfers     prometheus.Counter
	transferBytes prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connections_total",
			Help:      "Accepted control connections.",
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transactions_total",
			Help:      "Handled transactions by type.",
		}, []string{"type"}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "online_users",
			Help:      "Users currently online.",
		}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transfers_total",
			Help:      "Accepted transfer connections.",
		}),
		transferBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transfer_bytes_total",
			Help:      "Bytes moved over transfer connections.",
		}),
	}
	m.registry.MustRegister(
		m.connections,
		m.transactions,
		m.onlineUsers,
		m.transfers,
		m.transferBytes,
	)
	return m
}

// handler serves the registry for the optional metrics listener.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
