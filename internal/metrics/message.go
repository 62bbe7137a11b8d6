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
	// RecordsProcessed counts EncryptedRecords handled by the record layer
	// (spec.md §4.5).
	RecordsProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "processed_total",
			Help:      "Total number of application records processed",
		},
		[]string{"type", "status"}, // binary, success/failure
	)

	// ReplayRejections counts records rejected by accept_recv_seq (spec.md
	// §4.3's strict-monotonic policy, invariant I1).
	ReplayRejections = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "replay_rejections_total",
			Help:      "Total number of records rejected as replays",
		},
	)

	// SequenceChecks counts every accept_recv_seq call, by outcome.
	SequenceChecks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "sequence_checks_total",
			Help:      "Total number of receive-sequence checks, by outcome",
		},
		[]string{"status"}, // accepted, replayed
	)

	// RecordProcessingLatency tracks Send/Recv latency end to end.
	RecordProcessingLatency = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "processing_latency_seconds",
			Help:      "Record seal/open processing latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to 205ms
		},
	)

	// RecordSize tracks plaintext size carried by each record.
	RecordSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "size_bytes",
			Help:      "Plaintext size of a record in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10), // 64B to 16MB
		},
	)
)
