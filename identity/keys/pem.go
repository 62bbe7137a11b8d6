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
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/bramblewire/securelink/identity"
)

// WriteRSAPrivatePEM writes priv to path PKCS1-encoded, 0600, so cmd/chand
// can persist a generated long-term identity across restarts without
// re-running the handshake's peer pinning.
func WriteRSAPrivatePEM(path string, priv *rsa.PrivateKey) error {
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return fmt.Errorf("write rsa private key: %w", err)
	}
	return nil
}

// ReadRSAPrivatePEM loads a PKCS1 RSA private key previously written by
// WriteRSAPrivatePEM.
func ReadRSAPrivatePEM(path string) (identity.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rsa private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, fmt.Errorf("read rsa private key: %s does not contain an RSA PRIVATE KEY block", path)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	return ImportRSAKeyPair(priv), nil
}

// WritePublicKeyPEM writes a "PUBLIC KEY" PEM block wrapping derBytes
// (whatever KeyPair.PublicKeyBytes returned) so an operator can hand the
// file to a peer for pinning via --peer-key.
func WritePublicKeyPEM(path string, derBytes []byte) error {
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: derBytes}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

// ReadPublicKeyPEM reads a "PUBLIC KEY" PEM block and returns its raw DER
// bytes, for keys.NewVerifier to parse according to the peer's declared
// key type.
func ReadPublicKeyPEM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("read public key: %s does not contain a PUBLIC KEY block", path)
	}
	return block.Bytes, nil
}

// LoadOrGenerateRSAKeyPair reads the identity key at path, or generates and
// persists a fresh one if the file does not exist yet — the same
// convenience cmd/chand's first run needs so an operator doesn't have to
// pre-provision a key before the very first start.
func LoadOrGenerateRSAKeyPair(path string) (identity.KeyPair, error) {
	if _, err := os.Stat(path); err == nil {
		return ReadRSAPrivatePEM(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat identity key %s: %w", path, err)
	}
	kp, err := GenerateRSAKeyPair()
	if err != nil {
		return nil, err
	}
	rawKP, ok := kp.(*rsaKeyPair)
	if !ok {
		return nil, fmt.Errorf("internal: generated key pair is not *rsaKeyPair")
	}
	if err := WriteRSAPrivatePEM(path, rawKP.priv); err != nil {
		return nil, err
	}
	return kp, nil
}
