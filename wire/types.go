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

// Package wire is the one place frame layout is defined. It has no
// knowledge of the handshake state machine or the record layer's sequence
// bookkeeping; it only knows how to turn a Header plus a payload into bytes
// and back, byte for byte, per the protocol's fixed little-endian layout.
package wire

// MessageType identifies the payload carried after a Header.
type MessageType uint16

const (
	MessageTypeHandshakeInit     MessageType = 1
	MessageTypeHandshakeResponse MessageType = 2
	MessageTypeHandshakeComplete MessageType = 3
	MessageTypeData              MessageType = 4
	MessageTypeKeyRotation       MessageType = 5
	MessageTypeError             MessageType = 6
	MessageTypeClose             MessageType = 7
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeHandshakeInit:
		return "HANDSHAKE_INIT"
	case MessageTypeHandshakeResponse:
		return "HANDSHAKE_RESPONSE"
	case MessageTypeHandshakeComplete:
		return "HANDSHAKE_COMPLETE"
	case MessageTypeData:
		return "ENCRYPTED_MESSAGE"
	case MessageTypeKeyRotation:
		return "KEY_ROTATION"
	case MessageTypeError:
		return "ERROR_MESSAGE"
	case MessageTypeClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode is the u16 payload of an ERROR_MESSAGE frame, per spec.md §6.
type ErrorCode uint16

const (
	ErrorCodeProtocolError    ErrorCode = 1
	ErrorCodeBadSignature     ErrorCode = 2
	ErrorCodeDecryptFail      ErrorCode = 3
	ErrorCodeReplay           ErrorCode = 4
	ErrorCodeTimeout          ErrorCode = 5
	ErrorCodeDuplicateSession ErrorCode = 6
	ErrorCodeInternal         ErrorCode = 7
)

// ForwardSecrecyMode is carried in the handshake so the wire format could
// in principle support a non-forward-secret mode later; today exactly one
// value is legal (spec.md §9 O4).
type ForwardSecrecyMode uint16

const (
	// ForwardSecrecyPerfect is the only mode this repository implements:
	// a fresh ephemeral X25519 pair generated per handshake.
	ForwardSecrecyPerfect ForwardSecrecyMode = 1
)

const (
	// ProtocolVersion is the Header.Version value this implementation
	// emits and the only one it accepts (spec.md V1_0 = 0x0100).
	ProtocolVersion uint16 = 0x0100

	// HeaderSize is the fixed 20-byte frame header: version(2) + type(2)
	// + sequence(4) + timestamp(8) + payload-size(2) + flags(2), per
	// spec.md §4.2.
	HeaderSize = 20

	// IVSize is the AES-GCM nonce length carried with every encrypted
	// record, and also the handshake nonce length (spec.md IV_SIZE).
	IVSize = 12

	// SignatureSize is the wire size of an RSA-2048 signature, the
	// default identity algorithm. Other identity.KeyPair algorithms
	// (Ed25519, Secp256k1) produce shorter signatures; HandshakeRecord
	// carries its own length prefix so the codec never assumes this
	// constant.
	SignatureSize = 256

	// SessionIDSize is the 128-bit session identifier.
	SessionIDSize = 16

	// ClientIDSize is the 32-bit client identifier.
	ClientIDSize = 4

	// DHPublicKeySize is an X25519 public key's wire size (KEY_SIZE for
	// the chosen DH group).
	DHPublicKeySize = 32

	// MaxMessageSize bounds a single frame's payload size, matching
	// spec.md's MAX_MESSAGE_SIZE.
	MaxMessageSize = 65535

	// DefaultPort is the default TCP port cmd/chand listens on.
	DefaultPort = 8080
)

// Header is the fixed-size prefix present on every frame. Field order and
// widths follow spec.md §4.2 exactly.
type Header struct {
	Version        uint16
	Type           MessageType
	SequenceNumber uint32
	TimestampUnix  uint64
	PayloadSize    uint16
	Flags          uint16
}

// HandshakeRecord is the payload of HANDSHAKE_INIT / HANDSHAKE_RESPONSE
// frames. HANDSHAKE_COMPLETE carries no payload: its presence on the wire
// is the confirmation (spec.md §4.4 flight 3).
type HandshakeRecord struct {
	ClientID           uint32
	SessionID          [SessionIDSize]byte
	ForwardSecrecyMode ForwardSecrecyMode
	EphemeralPublicKey [DHPublicKeySize]byte
	Nonce              [IVSize]byte
	SignatureLength    uint16
	Signature          []byte // transcript signature; length varies by identity.KeyPair algorithm
}

// EncryptedRecord is the payload of an ENCRYPTED_MESSAGE frame: an
// AEAD-sealed application message. The AEAD tag is the trailing 16 bytes
// of Ciphertext (Go's cipher.AEAD convention); there is no separate
// per-record signature, per the resolution of spec.md §9 O1.
type EncryptedRecord struct {
	SessionID  [SessionIDSize]byte
	MessageID  uint32
	IV         [IVSize]byte
	Ciphertext []byte
}

// ErrorRecord is the payload of an ERROR_MESSAGE frame.
type ErrorRecord struct {
	Code ErrorCode
}
