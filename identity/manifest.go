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

package identity

import (
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ManifestEntry is one peer record inside a signed manifest.
type ManifestEntry struct {
	Name      string `json:"name"`
	KeyType   string `json:"key_type"`
	PublicKey string `json:"public_key"` // base64-standard encoded
}

// manifestClaims is the JWT payload an operator key signs over: a list of
// peers to trust, wrapped in standard registered claims so expiry can be
// enforced by jwt.Parse itself.
type manifestClaims struct {
	jwt.RegisteredClaims
	Peers []ManifestEntry `json:"peers"`
}

// LoadManifest verifies a JWT manifest signed by operatorPubKey (RSA) and
// pins each of the manifest's peers, replacing any entry of the same name;
// entries whose names are not in the manifest stay pinned.
// This is a flat, non-CA trust list: the operator key only ever signs this
// one document, it never chains to further certificates.
func (d *Directory) LoadManifest(token string, operatorPubKey interface{}) error {
	claims := &manifestClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected manifest signing method: %v", t.Header["alg"])
		}
		return operatorPubKey, nil
	})
	if err != nil {
		return fmt.Errorf("parse identity manifest: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("identity manifest failed validation")
	}

	for _, peer := range claims.Peers {
		raw, err := base64.StdEncoding.DecodeString(peer.PublicKey)
		if err != nil {
			return fmt.Errorf("decode public key for %q: %w", peer.Name, err)
		}
		d.Pin(peer.Name, KeyType(peer.KeyType), raw)
	}
	return nil
}
