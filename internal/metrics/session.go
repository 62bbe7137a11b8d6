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
	// SessionsAuthenticated counts sessions that reached the AUTHENTICATED
	// phase (or failed trying), per spec.md §3's phase enum.
	SessionsAuthenticated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "authenticated_total",
			Help:      "Total number of sessions that completed the handshake",
		},
		[]string{"status"}, // success, failure
	)

	// SessionsOpen is the number of sessions currently in AUTHENTICATED or
	// REKEYING phase.
	SessionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "open",
			Help:      "Number of sessions currently authenticated or rekeying",
		},
	)

	// SessionsIdleClosed counts sessions torn down after exceeding the idle
	// read timeout (spec.md §5).
	SessionsIdleClosed = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "idle_closed_total",
			Help:      "Total number of sessions closed for exceeding the idle timeout",
		},
	)

	// SessionsTerminated counts sessions that reached CLOSED or FAILED,
	// regardless of cause.
	SessionsTerminated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "terminated_total",
			Help:      "Total number of sessions that reached CLOSED or FAILED",
		},
	)

	// SessionOperationLatency tracks how long per-session operations take.
	SessionOperationLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "operation_latency_seconds",
			Help:      "Latency of session-scoped operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15), // 0.1ms to 1.6s
		},
		[]string{"operation"}, // authenticate, seal, open, rekey
	)

	// SessionRecordSize tracks the size of records passing through the
	// record layer (spec.md §4.5), split by direction.
	SessionRecordSize = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "record_size_bytes",
			Help:      "Size of plaintext carried by EncryptedRecords, by direction",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10), // 64B to 16MB
		},
		[]string{"direction"}, // inbound, outbound
	)
)
