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

// Package handshake drives session.State through the three-flight protocol
// of spec.md §4.4 over a transport.Conn, verifying the peer's long-term
// signature and deriving the initial traffic key.
package handshake

import (
	"time"

	"github.com/bramblewire/securelink/identity"
	"github.com/bramblewire/securelink/internal/logger"
)

// DefaultTimeout is the wall-clock budget the handshake has to complete
// before it is abandoned as TIMEOUT, per spec.md §5.
const DefaultTimeout = 10 * time.Second

// ResolvePeer looks up the expected long-term identity of an inbound
// connection from the ClientID/SessionID it presents in HANDSHAKE_INIT.
// A fixed single-peer deployment (such as cmd/chand) can ignore both
// arguments and always return the same identity.KeyPair; a multi-peer
// server can back this with an identity.Directory lookup.
type ResolvePeer func(clientID uint32, sessionID [16]byte) (identity.KeyPair, error)

// InitiatorOptions configures Open.
type InitiatorOptions struct {
	// Local is this side's long-term signing identity.
	Local identity.KeyPair
	// Peer is the expected long-term identity of the responder, per the
	// core's exposed `open(transport, peer_identity)` entry point
	// (spec.md §6).
	Peer identity.KeyPair
	// Timeout bounds the whole handshake; zero uses DefaultTimeout.
	Timeout time.Duration
	// Logger receives phase transitions and rejected-frame events; nil
	// disables logging.
	Logger logger.Logger
}

// ResponderOptions configures Accept.
type ResponderOptions struct {
	// Local is this side's long-term signing identity.
	Local identity.KeyPair
	// Resolve maps an inbound HANDSHAKE_INIT's claimed ClientID to the
	// expected peer identity, per the core's `accept(transport, identity)`
	// entry point. Required.
	Resolve ResolvePeer
	Timeout time.Duration
	Logger  logger.Logger
}

func (o InitiatorOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

func (o ResponderOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

// logInfo/logWarn no-op when no logger is configured, so callers never need
// a nil check at each call site.
func logInfo(l logger.Logger, msg string, fields ...logger.Field) {
	if l != nil {
		l.Info(msg, fields...)
	}
}

func logWarn(l logger.Logger, msg string, fields ...logger.Field) {
	if l != nil {
		l.Warn(msg, fields...)
	}
}
