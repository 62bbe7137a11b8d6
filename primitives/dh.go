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

// Package primitives adapts the cryptographic building blocks the channel
// protocol is built from: ephemeral X25519 key agreement, AES-256-GCM AEAD
// and HKDF key derivation (long-term signing lives in identity/keys). Every function here is stateless
// with respect to the session; session/handshake code calls into these
// instead of touching crypto/* packages directly.
package primitives

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
)

// DHKeyPair is a single-use ephemeral X25519 key agreement pair. It carries
// no identity and is discarded once the handshake that created it completes.
type DHKeyPair struct {
	priv *ecdh.PrivateKey
	pub  *ecdh.PublicKey
}

// GenerateDHKeyPair creates a fresh ephemeral X25519 key pair.
func GenerateDHKeyPair() (*DHKeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral dh key: %w", err)
	}
	return &DHKeyPair{priv: priv, pub: priv.PublicKey()}, nil
}

// PublicBytes returns the 32-byte X25519 public key to place on the wire.
func (kp *DHKeyPair) PublicBytes() []byte {
	return kp.pub.Bytes()
}

// DeriveSharedSecret performs the X25519 exchange with a peer's public key
// bytes and returns the raw 32-byte shared secret. Callers must not use this
// value directly as a key; it must be passed through DeriveTrafficKey first.
func (kp *DHKeyPair) DeriveSharedSecret(peerPubBytes []byte) ([]byte, error) {
	peerPub, err := ecdh.X25519().NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse peer dh public key: %w", err)
	}
	secret, err := kp.priv.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("compute dh shared secret: %w", err)
	}
	return secret, nil
}

// Zero drops the key pair's references to its key material; the key bytes
// themselves are not overwritten, and the Go runtime gives no guarantee
// they haven't been copied elsewhere.
func (kp *DHKeyPair) Zero() {
	kp.priv = nil
	kp.pub = nil
}
