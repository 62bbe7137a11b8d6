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

// Package identity provides long-term peer identity: signing keypairs used
// to authenticate the handshake transcript, and a directory mapping client
// ids to pinned public keys. Nothing here touches the per-session ephemeral
// DH key in primitives/dh.go; the two are intentionally unrelated keypairs.
package identity

import (
	"crypto"
	"errors"
)

// KeyType names the long-term signing algorithm a KeyPair implements.
type KeyType string

const (
	KeyTypeRSA       KeyType = "rsa-2048"
	KeyTypeEd25519   KeyType = "ed25519"
	KeyTypeSecp256k1 KeyType = "secp256k1"
)

// ErrInvalidSignature is returned by Verify when the signature does not
// match the message under the public key.
var ErrInvalidSignature = errors.New("identity: invalid signature")

// KeyPair is the long-term signing identity used to authenticate the
// handshake transcript (spec §4.1's "RSA keypair gen/sign/verify",
// generalized to a pluggable algorithm choice). Implementations must be
// safe for concurrent Sign/Verify calls.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	PrivateKey() crypto.PrivateKey
	Type() KeyType
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
	// ID is a short fingerprint derived from the public key, used as the
	// directory lookup key and in audit log entries.
	ID() string
	// PublicKeyBytes is the wire/storage encoding of the public key, the
	// input keys.NewVerifier parses and the bytes a directory entry pins.
	PublicKeyBytes() []byte
}
