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

// Package audit persists an append-only record of session lifecycle
// events for incident response. The core protocol packages (handshake,
// session, record) are deliberately unaware of this package — callers in
// cmd/chand record events after the fact, so the protocol's own
// correctness never depends on the audit store being reachable.
package audit

import (
	"context"
	"time"
)

// EventKind enumerates the session lifecycle events worth a durable
// record. Only metadata is ever persisted here — never traffic keys,
// ephemeral keys, or plaintext.
type EventKind string

const (
	EventSessionCreated      EventKind = "session_created"
	EventSessionAuthenticated EventKind = "session_authenticated"
	EventSessionRekeyed      EventKind = "session_rekeyed"
	EventSessionClosed       EventKind = "session_closed"
	EventSessionFailed       EventKind = "session_failed"
)

// Event is one durable audit record.
type Event struct {
	SessionID  string
	ClientID   uint32
	Kind       EventKind
	Role       string // initiator, responder
	PeerName   string
	Epoch      uint32
	Detail     string
	OccurredAt time.Time
}

// Store persists and queries Events.
type Store interface {
	Record(ctx context.Context, ev Event) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Event, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
