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

// Package transport defines the byte-stream interface the protocol core
// consumes (spec.md §6: "a byte-stream transport providing send_all(bytes)
// and recv_exact(n)... with reliable ordered delivery"). The core never
// imports net or gorilla/websocket directly; transport/tcp and
// transport/ws are the two concrete collaborators.
package transport

import "time"

// Conn is the only capability the handshake engine and record layer need
// from a transport. Implementations must deliver bytes reliably and in
// order; the core assumes this and performs no retransmission or
// reordering of its own (spec.md §1 Non-goals).
type Conn interface {
	// SendAll writes every byte of b or returns an error; partial writes
	// are never observed by the caller.
	SendAll(b []byte) error
	// RecvExact blocks until exactly n bytes have been read, or returns
	// an error (including io.EOF on a clean close before n bytes arrive).
	RecvExact(n int) ([]byte, error)
	// SetDeadline arms the idle/handshake/rekey timeout for the next
	// SendAll/RecvExact call, per spec.md §5.
	SetDeadline(t time.Time) error
	// Close releases the underlying transport. Safe to call more than
	// once.
	Close() error
}
