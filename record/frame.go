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

package record

import (
	"time"

	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// additionalData builds the AEAD AAD per spec.md §4.5 step 3: the exact
// bytes of the frame's own header, concatenated with the session-id and
// message-id carried in its EncryptedRecord. Binding the header into the
// AAD means a tampered message-type or sequence-number fails the AEAD tag
// check rather than merely a separate field comparison.
func additionalData(headerBytes []byte, sessionID [wire.SessionIDSize]byte, messageID uint32) []byte {
	aad := make([]byte, 0, len(headerBytes)+wire.SessionIDSize+4)
	aad = append(aad, headerBytes...)
	aad = append(aad, sessionID[:]...)
	aad = appendUint32LE(aad, messageID)
	return aad
}

func appendUint32LE(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// sendFrame encodes h and writes header then payload as two all-or-nothing
// writes. h.PayloadSize must already match len(payload); callers that need
// the encoded header bytes for an AAD (send.go) compute h once and reuse
// its encoding for both purposes.
func sendFrame(conn transport.Conn, h wire.Header, payload []byte) error {
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

func controlFrame(msgType wire.MessageType) wire.Header {
	return wire.Header{
		Version:       wire.ProtocolVersion,
		Type:          msgType,
		TimestampUnix: uint64(time.Now().Unix()),
	}
}

// frameIn is one frame read off the wire: the decoded header, the header's
// raw bytes (needed verbatim to rebuild the AAD an ENCRYPTED_MESSAGE was
// sealed under), and the payload.
type frameIn struct {
	Header    wire.Header
	HeaderRaw []byte
	Payload   []byte
}

func readFrame(conn transport.Conn, timeout time.Duration) (frameIn, error) {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return frameIn{}, protocol.Wrap(protocol.KindTransport, "set deadline", err)
	}
	raw, err := conn.RecvExact(wire.HeaderSize)
	if err != nil {
		return frameIn{}, protocol.WrapRecv("read header", err)
	}
	h, err := wire.DecodeHeader(raw)
	if err != nil {
		return frameIn{}, protocol.Wrap(protocol.KindMalformed, "decode header", err)
	}
	if h.Version != wire.ProtocolVersion {
		return frameIn{}, protocol.New(protocol.KindProtocol, "unsupported protocol version")
	}
	if h.PayloadSize == 0 {
		return frameIn{Header: h, HeaderRaw: raw}, nil
	}
	payload, err := conn.RecvExact(int(h.PayloadSize))
	if err != nil {
		return frameIn{}, protocol.WrapRecv("read payload", err)
	}
	return frameIn{Header: h, HeaderRaw: raw, Payload: payload}, nil
}

func sendErrorBestEffort(conn transport.Conn, err error) {
	pe, ok := err.(*protocol.Error)
	if !ok {
		return
	}
	code, ok := pe.WireCode()
	if !ok {
		return
	}
	payload := wire.EncodeErrorRecord(wire.ErrorRecord{Code: code})
	h := controlFrame(wire.MessageTypeError)
	h.PayloadSize = uint16(len(payload))
	_ = sendFrame(conn, h, payload)
}
