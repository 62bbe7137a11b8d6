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

package handshake

import (
	"time"

	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// writeFrame encodes header+payload and hands them to conn as two writes.
// Each SendAll is all-or-nothing per transport.Conn, but if the payload
// write fails the peer has already received the header alone.
func writeFrame(conn transport.Conn, msgType wire.MessageType, payload []byte) error {
	h := wire.Header{
		Version:       wire.ProtocolVersion,
		Type:          msgType,
		TimestampUnix: uint64(time.Now().Unix()),
		PayloadSize:   uint16(len(payload)),
	}
	if err := conn.SendAll(wire.EncodeHeader(h)); err != nil {
		return protocol.Wrap(protocol.KindTransport, "write header", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := conn.SendAll(payload); err != nil {
		return protocol.Wrap(protocol.KindTransport, "write payload", err)
	}
	return nil
}

// readFrame blocks for the next header plus its declared payload, applying
// deadline as the read timeout for both reads (spec.md §5 handshake
// budget).
func readFrame(conn transport.Conn, deadline time.Time) (wire.Header, []byte, error) {
	if err := conn.SetDeadline(deadline); err != nil {
		return wire.Header{}, nil, protocol.Wrap(protocol.KindTransport, "set deadline", err)
	}
	raw, err := conn.RecvExact(wire.HeaderSize)
	if err != nil {
		return wire.Header{}, nil, protocol.WrapRecv("read header", err)
	}
	h, err := wire.DecodeHeader(raw)
	if err != nil {
		return wire.Header{}, nil, protocol.Wrap(protocol.KindMalformed, "decode header", err)
	}
	if h.Version != wire.ProtocolVersion {
		return wire.Header{}, nil, protocol.New(protocol.KindProtocol, "unsupported protocol version")
	}
	if h.PayloadSize == 0 {
		return h, nil, nil
	}
	payload, err := conn.RecvExact(int(h.PayloadSize))
	if err != nil {
		return wire.Header{}, nil, protocol.WrapRecv("read payload", err)
	}
	return h, payload, nil
}

// sendErrorBestEffort emits an ERROR_MESSAGE frame for a fatal protocol
// error, per spec.md §7 ("the offending side SHOULD send an ERROR_MESSAGE
// ... unless doing so would itself block or leak information"). Any
// failure writing it is ignored: the caller is already closing.
func sendErrorBestEffort(conn transport.Conn, err error) {
	pe, ok := err.(*protocol.Error)
	if !ok {
		return
	}
	code, ok := pe.WireCode()
	if !ok {
		return
	}
	_ = writeFrame(conn, wire.MessageTypeError, wire.EncodeErrorRecord(wire.ErrorRecord{Code: code}))
}
