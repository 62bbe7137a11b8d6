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
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"github.com/bramblewire/securelink/identity"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// NewVerifier builds a public-key-only identity.KeyPair from the bytes an
// identity.Directory entry carries. PrivateKey and Sign are unusable on the
// result (it represents a peer's identity, never the local one); only
// Verify, Type, ID and PublicKeyBytes are meaningful.
func NewVerifier(keyType identity.KeyType, publicKeyBytes []byte) (identity.KeyPair, error) {
	switch keyType {
	case identity.KeyTypeRSA:
		parsed, err := x509.ParsePKIXPublicKey(publicKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse rsa public key: %w", err)
		}
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("identity: key type rsa-2048 but public key is %T", parsed)
		}
		return newRSAVerifier(pub), nil
	case identity.KeyTypeEd25519:
		if len(publicKeyBytes) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKeyBytes))
		}
		return newEd25519Verifier(ed25519.PublicKey(append([]byte{}, publicKeyBytes...))), nil
	case identity.KeyTypeSecp256k1:
		pub, err := secp256k1.ParsePubKey(publicKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse secp256k1 public key: %w", err)
		}
		return newSecp256k1Verifier(pub), nil
	default:
		return nil, fmt.Errorf("unsupported identity key type %q", keyType)
	}
}

type rsaVerifier struct {
	pub *rsa.PublicKey
	id  string
}

func newRSAVerifier(pub *rsa.PublicKey) identity.KeyPair {
	hash := sha256.Sum256(pub.N.Bytes())
	return &rsaVerifier{pub: pub, id: hex.EncodeToString(hash[:8])}
}

func (v *rsaVerifier) PublicKey() crypto.PublicKey   { return v.pub }
func (v *rsaVerifier) PrivateKey() crypto.PrivateKey { return nil }
func (v *rsaVerifier) Type() identity.KeyType        { return identity.KeyTypeRSA }
func (v *rsaVerifier) ID() string                    { return v.id }
func (v *rsaVerifier) PublicKeyBytes() []byte {
	der, err := x509.MarshalPKIXPublicKey(v.pub)
	if err != nil {
		panic(fmt.Sprintf("marshal rsa public key: %v", err))
	}
	return der
}
func (v *rsaVerifier) Sign([]byte) ([]byte, error) {
	return nil, fmt.Errorf("identity: verifier holds no private key")
}
func (v *rsaVerifier) Verify(message, signature []byte) error {
	return (&rsaKeyPair{pub: v.pub}).Verify(message, signature)
}

type ed25519Verifier struct {
	pub ed25519.PublicKey
	id  string
}

func newEd25519Verifier(pub ed25519.PublicKey) identity.KeyPair {
	hash := sha256.Sum256(pub)
	return &ed25519Verifier{pub: pub, id: hex.EncodeToString(hash[:8])}
}

func (v *ed25519Verifier) PublicKey() crypto.PublicKey   { return v.pub }
func (v *ed25519Verifier) PrivateKey() crypto.PrivateKey { return nil }
func (v *ed25519Verifier) Type() identity.KeyType        { return identity.KeyTypeEd25519 }
func (v *ed25519Verifier) ID() string                    { return v.id }
func (v *ed25519Verifier) PublicKeyBytes() []byte        { return append([]byte{}, v.pub...) }
func (v *ed25519Verifier) Sign([]byte) ([]byte, error) {
	return nil, fmt.Errorf("identity: verifier holds no private key")
}
func (v *ed25519Verifier) Verify(message, signature []byte) error {
	if !ed25519.Verify(v.pub, message, signature) {
		return identity.ErrInvalidSignature
	}
	return nil
}

type secp256k1Verifier struct {
	pub *secp256k1.PublicKey
	id  string
}

func newSecp256k1Verifier(pub *secp256k1.PublicKey) identity.KeyPair {
	hash := sha256.Sum256(pub.SerializeCompressed())
	return &secp256k1Verifier{pub: pub, id: hex.EncodeToString(hash[:8])}
}

func (v *secp256k1Verifier) PublicKey() crypto.PublicKey   { return v.pub.ToECDSA() }
func (v *secp256k1Verifier) PrivateKey() crypto.PrivateKey { return nil }
func (v *secp256k1Verifier) Type() identity.KeyType        { return identity.KeyTypeSecp256k1 }
func (v *secp256k1Verifier) ID() string                    { return v.id }
func (v *secp256k1Verifier) PublicKeyBytes() []byte        { return v.pub.SerializeCompressed() }
func (v *secp256k1Verifier) Sign([]byte) ([]byte, error) {
	return nil, fmt.Errorf("identity: verifier holds no private key")
}
func (v *secp256k1Verifier) Verify(message, signature []byte) error {
	return (&secp256k1KeyPair{pub: v.pub}).Verify(message, signature)
}
