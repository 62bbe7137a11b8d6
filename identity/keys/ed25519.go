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

package keys

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bramblewire/securelink/identity"
)

type ed25519KeyPair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	id   string
}

// GenerateEd25519KeyPair creates a fresh Ed25519 signing identity. This key
// is never converted to X25519; it is used only for the handshake
// transcript signature, never for key agreement.
func GenerateEd25519KeyPair() (identity.KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return newEd25519KeyPair(priv, pub), nil
}

func newEd25519KeyPair(priv ed25519.PrivateKey, pub ed25519.PublicKey) *ed25519KeyPair {
	hash := sha256.Sum256(pub)
	return &ed25519KeyPair{priv: priv, pub: pub, id: hex.EncodeToString(hash[:8])}
}

func (kp *ed25519KeyPair) PublicKey() crypto.PublicKey   { return kp.pub }
func (kp *ed25519KeyPair) PrivateKey() crypto.PrivateKey { return kp.priv }
func (kp *ed25519KeyPair) Type() identity.KeyType        { return identity.KeyTypeEd25519 }
func (kp *ed25519KeyPair) ID() string                    { return kp.id }
func (kp *ed25519KeyPair) PublicKeyBytes() []byte        { return append([]byte{}, kp.pub...) }

func (kp *ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(kp.priv, message), nil
}

func (kp *ed25519KeyPair) Verify(message, signature []byte) error {
	if !ed25519.Verify(kp.pub, message, signature) {
		return identity.ErrInvalidSignature
	}
	return nil
}
