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

// Package protocol carries the closed set of error kinds spec.md §7 defines
// for the handshake engine and record layer: a kind, a human message, and
// an optional wrapped cause.
package protocol

import (
	"errors"
	"fmt"
	"os"

	"github.com/bramblewire/securelink/wire"
)

// ErrorKind is the closed set of error kinds a core entry point can return,
// per spec.md §7.
type ErrorKind string

const (
	KindTransport        ErrorKind = "TRANSPORT"
	KindMalformed        ErrorKind = "MALFORMED"
	KindProtocol         ErrorKind = "PROTOCOL"
	KindAuthFailure      ErrorKind = "AUTH_FAILURE"
	KindReplay           ErrorKind = "REPLAY"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindClosed           ErrorKind = "CLOSED"
	KindDuplicateSession ErrorKind = "DUPLICATE_SESSION"
)

// fatal reports whether a session must transition to FAILED and its
// transport be closed once this kind surfaces, per spec.md §7's propagation
// policy: AuthFailure/Replay/Malformed/Protocol are always fatal, Transport
// errors terminate the session with Transport, and a timeout (handshake
// budget or idle-read deadline, spec.md §5) also transitions to FAILED.
// Closed is the one non-fatal kind: it names a session that already ended
// via the peer's own orderly shutdown, not a new failure to react to.
func (k ErrorKind) fatal() bool {
	return k != KindClosed
}

// wireCode maps a fatal ErrorKind to the ERROR_MESSAGE code the offending
// side SHOULD emit before closing (spec.md §6, §7).
func (k ErrorKind) wireCode() (wire.ErrorCode, bool) {
	switch k {
	case KindProtocol:
		return wire.ErrorCodeProtocolError, true
	case KindAuthFailure:
		return wire.ErrorCodeBadSignature, true
	case KindReplay:
		return wire.ErrorCodeReplay, true
	case KindTimeout:
		return wire.ErrorCodeTimeout, true
	case KindDuplicateSession:
		return wire.ErrorCodeDuplicateSession, true
	case KindMalformed:
		return wire.ErrorCodeProtocolError, true
	default:
		return 0, false
	}
}

// Error is a structured protocol failure: a closed Kind, a message, and an
// optional wrapped cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Fatal reports whether this error must close the session, per spec.md §7.
func (e *Error) Fatal() bool { return e.Kind.fatal() }

// WireCode returns the ERROR_MESSAGE code to emit for this error, and
// whether one applies at all (some kinds, e.g. Closed, never reach the
// wire).
func (e *Error) WireCode() (wire.ErrorCode, bool) { return e.Kind.wireCode() }

// New builds a *Error with no wrapped cause.
func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a *Error wrapping cause. If cause is already a *Error it is
// returned unwrapped (never double-wrapped), preserving the innermost kind.
func Wrap(kind ErrorKind, message string, cause error) *Error {
	if pe, ok := cause.(*Error); ok {
		return pe
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WrapRecv classifies a transport.Conn.RecvExact failure per spec.md §7:
// an exceeded read deadline is Timeout, while anything else — a clean EOF,
// a truncated read hitting io.ErrUnexpectedEOF, or any other I/O failure —
// is Transport. This keeps a short/truncated frame (spec.md scenario S6)
// from surfacing as a spurious Timeout.
func WrapRecv(message string, cause error) *Error {
	if errors.Is(cause, os.ErrDeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: message, Cause: cause}
	}
	return &Error{Kind: KindTransport, Message: message, Cause: cause}
}
