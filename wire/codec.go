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

package wire

import (
	"encoding/binary"
	"fmt"
)

// ErrMalformed wraps any codec-level decode failure: short buffer, length
// field that doesn't match the remaining bytes, or trailing bytes. The
// protocol version is not checked here.
// Callers at the session/handshake layer translate this into the
// Malformed error kind from spec.md §7.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string { return "wire: malformed frame: " + e.Reason }

func malformed(format string, args ...any) error {
	return &ErrMalformed{Reason: fmt.Sprintf(format, args...)}
}

// EncodeHeader writes the 20-byte fixed header, little-endian throughout
// (spec.md §9 O3).
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Version)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h.Type))
	binary.LittleEndian.PutUint32(buf[4:8], h.SequenceNumber)
	binary.LittleEndian.PutUint64(buf[8:16], h.TimestampUnix)
	binary.LittleEndian.PutUint16(buf[16:18], h.PayloadSize)
	binary.LittleEndian.PutUint16(buf[18:20], h.Flags)
	return buf
}

// DecodeHeader parses exactly HeaderSize bytes. It does not check the
// version: callers compare it against ProtocolVersion themselves and report
// a mismatch as a Protocol-kind error.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, malformed("header must be %d bytes, got %d", HeaderSize, len(buf))
	}
	var h Header
	h.Version = binary.LittleEndian.Uint16(buf[0:2])
	h.Type = MessageType(binary.LittleEndian.Uint16(buf[2:4]))
	h.SequenceNumber = binary.LittleEndian.Uint32(buf[4:8])
	h.TimestampUnix = binary.LittleEndian.Uint64(buf[8:16])
	h.PayloadSize = binary.LittleEndian.Uint16(buf[16:18])
	h.Flags = binary.LittleEndian.Uint16(buf[18:20])
	if h.PayloadSize > MaxMessageSize {
		return Header{}, malformed("payload size %d exceeds max message size", h.PayloadSize)
	}
	return h, nil
}

// EncodeHandshakeRecord serializes a HandshakeRecord. SignatureLength is
// recomputed from the slice length rather than trusted from the caller, so
// an encode call can never produce a length field that disagrees with the
// bytes that follow it.
func EncodeHandshakeRecord(r HandshakeRecord) []byte {
	size := ClientIDSize + SessionIDSize + 2 + DHPublicKeySize + IVSize + 2 + len(r.Signature)
	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], r.ClientID)
	off += ClientIDSize
	copy(buf[off:off+SessionIDSize], r.SessionID[:])
	off += SessionIDSize
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(r.ForwardSecrecyMode))
	off += 2
	copy(buf[off:off+DHPublicKeySize], r.EphemeralPublicKey[:])
	off += DHPublicKeySize
	copy(buf[off:off+IVSize], r.Nonce[:])
	off += IVSize
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(r.Signature)))
	off += 2
	copy(buf[off:off+len(r.Signature)], r.Signature)
	return buf
}

// DecodeHandshakeRecord is the inverse of EncodeHandshakeRecord. It
// validates every length field against the remaining buffer before
// slicing, so a truncated or adversarially-crafted frame fails with
// ErrMalformed instead of panicking.
func DecodeHandshakeRecord(buf []byte) (HandshakeRecord, error) {
	const fixed = ClientIDSize + SessionIDSize + 2 + DHPublicKeySize + IVSize + 2
	if len(buf) < fixed {
		return HandshakeRecord{}, malformed("handshake record too short: %d bytes", len(buf))
	}
	var r HandshakeRecord
	off := 0
	r.ClientID = binary.LittleEndian.Uint32(buf[off : off+4])
	off += ClientIDSize
	copy(r.SessionID[:], buf[off:off+SessionIDSize])
	off += SessionIDSize
	r.ForwardSecrecyMode = ForwardSecrecyMode(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	copy(r.EphemeralPublicKey[:], buf[off:off+DHPublicKeySize])
	off += DHPublicKeySize
	copy(r.Nonce[:], buf[off:off+IVSize])
	off += IVSize
	r.SignatureLength = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	if len(buf) < off+int(r.SignatureLength) {
		return HandshakeRecord{}, malformed("handshake record truncated in signature")
	}
	r.Signature = append([]byte{}, buf[off:off+int(r.SignatureLength)]...)
	off += int(r.SignatureLength)
	if off != len(buf) {
		return HandshakeRecord{}, malformed("handshake record has %d trailing bytes", len(buf)-off)
	}
	return r, nil
}

// EncodeEncryptedRecord serializes an EncryptedRecord: session-id,
// message-id, IV, then ciphertext (which already includes the trailing
// AEAD tag).
func EncodeEncryptedRecord(r EncryptedRecord) []byte {
	const fixed = SessionIDSize + 4 + IVSize
	buf := make([]byte, fixed+len(r.Ciphertext))
	off := 0
	copy(buf[off:off+SessionIDSize], r.SessionID[:])
	off += SessionIDSize
	binary.LittleEndian.PutUint32(buf[off:off+4], r.MessageID)
	off += 4
	copy(buf[off:off+IVSize], r.IV[:])
	off += IVSize
	copy(buf[off:], r.Ciphertext)
	return buf
}

// DecodeEncryptedRecord is the inverse of EncodeEncryptedRecord.
func DecodeEncryptedRecord(buf []byte) (EncryptedRecord, error) {
	const fixed = SessionIDSize + 4 + IVSize
	if len(buf) < fixed {
		return EncryptedRecord{}, malformed("encrypted record too short: %d bytes", len(buf))
	}
	var r EncryptedRecord
	off := 0
	copy(r.SessionID[:], buf[off:off+SessionIDSize])
	off += SessionIDSize
	r.MessageID = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	copy(r.IV[:], buf[off:off+IVSize])
	off += IVSize
	r.Ciphertext = append([]byte{}, buf[off:]...)
	return r, nil
}

// EncodeErrorRecord serializes an ErrorRecord: a single u16 ErrorCode, per
// spec.md §6.
func EncodeErrorRecord(r ErrorRecord) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(r.Code))
	return buf
}

// DecodeErrorRecord is the inverse of EncodeErrorRecord.
func DecodeErrorRecord(buf []byte) (ErrorRecord, error) {
	if len(buf) != 2 {
		return ErrorRecord{}, malformed("error record must be 2 bytes, got %d", len(buf))
	}
	return ErrorRecord{Code: ErrorCode(binary.LittleEndian.Uint16(buf))}, nil
}
