// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HandshakesStarted counts HANDSHAKE_INIT flights sent or accepted,
	// per spec.md §4.4's flight 1.
	HandshakesStarted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "started_total",
			Help:      "Total number of handshakes started, by role",
		},
		[]string{"role"}, // initiator, responder
	)

	// HandshakesFinished counts handshakes that reached AUTHENTICATED or
	// FAILED.
	HandshakesFinished = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "finished_total",
			Help:      "Total number of handshakes that finished, by outcome",
		},
		[]string{"status"}, // success, failure
	)

	// HandshakeRejections counts handshakes that transitioned to FAILED,
	// broken down by the protocol.ErrorKind that caused it (spec.md §7).
	HandshakeRejections = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "rejections_total",
			Help:      "Total number of handshake rejections, by error kind",
		},
		[]string{"reason"}, // timeout, bad_signature, protocol, duplicate_session
	)

	// HandshakeFlightLatency tracks how long each flight of the handshake
	// takes to process (spec.md §4.4's three flights).
	HandshakeFlightLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "flight_latency_seconds",
			Help:      "Handshake flight processing latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 2s
		},
		[]string{"stage"}, // init, response, complete, finalize
	)
)
