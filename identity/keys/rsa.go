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

// Package keys implements identity.KeyPair for the three long-term signing
// algorithms this repository supports: RSA-2048 (the spec default),
// Ed25519, and Secp256k1.
package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"github.com/bramblewire/securelink/identity"
)

// RSABits is the modulus size spec.md §4.1 names for the long-term identity
// key.
const RSABits = 2048

type rsaKeyPair struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
	id   string
}

// GenerateRSAKeyPair creates a fresh 2048-bit RSA signing identity.
func GenerateRSAKeyPair() (identity.KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, RSABits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return newRSAKeyPair(priv), nil
}

// ImportRSAKeyPair wraps an already-loaded RSA private key (e.g. read from
// a PEM file by cmd/chand) as an identity.KeyPair.
func ImportRSAKeyPair(priv *rsa.PrivateKey) identity.KeyPair {
	return newRSAKeyPair(priv)
}

func newRSAKeyPair(priv *rsa.PrivateKey) *rsaKeyPair {
	pub := &priv.PublicKey
	hash := sha256.Sum256(pub.N.Bytes())
	return &rsaKeyPair{priv: priv, pub: pub, id: hex.EncodeToString(hash[:8])}
}

func (kp *rsaKeyPair) PublicKey() crypto.PublicKey   { return kp.pub }
func (kp *rsaKeyPair) PrivateKey() crypto.PrivateKey { return kp.priv }
func (kp *rsaKeyPair) Type() identity.KeyType        { return identity.KeyTypeRSA }
func (kp *rsaKeyPair) ID() string                    { return kp.id }

func (kp *rsaKeyPair) PublicKeyBytes() []byte {
	der, err := x509.MarshalPKIXPublicKey(kp.pub)
	if err != nil {
		// RSA public keys always marshal; this would only fail on a
		// corrupted in-memory key.
		panic(fmt.Sprintf("marshal rsa public key: %v", err))
	}
	return der
}

func (kp *rsaKeyPair) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, kp.priv, crypto.SHA256, hash[:])
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

func (kp *rsaKeyPair) Verify(message, signature []byte) error {
	hash := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(kp.pub, crypto.SHA256, hash[:], signature); err != nil {
		return identity.ErrInvalidSignature
	}
	return nil
}
