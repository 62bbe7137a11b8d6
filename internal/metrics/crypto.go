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
	// PrimitiveOperations counts calls into the primitives adapter
	// (spec.md §4.1): DH agreement, AEAD seal/open, signing and
	// verification.
	PrimitiveOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "primitives",
			Name:      "operations_total",
			Help:      "Total number of primitive adapter calls",
		},
		[]string{"operation", "algorithm"}, // dh_agree/seal/open/sign/verify, x25519/aes-256-gcm/rsa-2048/ed25519/secp256k1
	)

	// PrimitiveFailures counts primitive adapter calls that returned an
	// error (a failed AEAD open, a rejected signature, and so on).
	PrimitiveFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "primitives",
			Name:      "failures_total",
			Help:      "Total number of primitive adapter calls that failed",
		},
		[]string{"operation"}, // dh_agree, seal, open, sign, verify
	)

	// PrimitiveOperationLatency tracks how long each primitive call takes.
	PrimitiveOperationLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "primitives",
			Name:      "operation_latency_seconds",
			Help:      "Primitive adapter call latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 15), // 10µs to 163ms
		},
		[]string{"operation", "algorithm"},
	)
)
