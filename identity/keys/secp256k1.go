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
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bramblewire/securelink/identity"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

type secp256k1KeyPair struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
	id   string
}

// GenerateSecp256k1KeyPair creates a fresh Secp256k1 signing identity, for
// operators who standardize on the same curve their chain tooling uses
// elsewhere.
func GenerateSecp256k1KeyPair() (identity.KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	pub := priv.PubKey()
	hash := sha256.Sum256(pub.SerializeCompressed())
	return &secp256k1KeyPair{priv: priv, pub: pub, id: hex.EncodeToString(hash[:8])}, nil
}

func (kp *secp256k1KeyPair) PublicKey() crypto.PublicKey   { return kp.pub.ToECDSA() }
func (kp *secp256k1KeyPair) PrivateKey() crypto.PrivateKey { return kp.priv.ToECDSA() }
func (kp *secp256k1KeyPair) Type() identity.KeyType        { return identity.KeyTypeSecp256k1 }
func (kp *secp256k1KeyPair) ID() string                    { return kp.id }
func (kp *secp256k1KeyPair) PublicKeyBytes() []byte        { return kp.pub.SerializeCompressed() }

func (kp *secp256k1KeyPair) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, kp.priv.ToECDSA(), hash[:])
	if err != nil {
		return nil, fmt.Errorf("secp256k1 sign: %w", err)
	}
	return serializeSignature(r, s), nil
}

func (kp *secp256k1KeyPair) Verify(message, signature []byte) error {
	hash := sha256.Sum256(message)
	r, s, err := deserializeSignature(signature)
	if err != nil {
		return identity.ErrInvalidSignature
	}
	if !ecdsa.Verify(kp.pub.ToECDSA(), hash[:], r, s) {
		return identity.ErrInvalidSignature
	}
	return nil
}

func serializeSignature(r, s *big.Int) []byte {
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	sig := make([]byte, 64)
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	return sig
}

func deserializeSignature(data []byte) (*big.Int, *big.Int, error) {
	if len(data) != 64 {
		return nil, nil, identity.ErrInvalidSignature
	}
	return new(big.Int).SetBytes(data[:32]), new(big.Int).SetBytes(data[32:]), nil
}
