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

package primitives

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveTrafficKey runs HKDF-Extract-then-Expand over the DH shared secret,
// salted with the initiator's nonce followed by the responder's nonce (both
// sides pass them in that order), and expanded with info as the HKDF info
// label. The one resulting key serves both directions.
func DeriveTrafficKey(sharedSecret, clientNonce, serverNonce []byte, info string) ([]byte, error) {
	salt := append(append([]byte{}, clientNonce...), serverNonce...)
	r := hkdf.New(sha256.New, sharedSecret, salt, []byte(info))
	key := make([]byte, TrafficKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive traffic key: %w", err)
	}
	return key, nil
}

// RatchetTrafficKey derives the next epoch's traffic key from the current
// one, per the rekey subprotocol: no fresh DH exchange, just a one-way KDF
// step keyed by the session id and new epoch number so neither party can
// recover a prior epoch's key from a later one.
func RatchetTrafficKey(currentKey, sessionID []byte, newEpoch uint32) ([]byte, error) {
	info := fmt.Sprintf("rekey-epoch-%d", newEpoch)
	r := hkdf.New(sha256.New, currentKey, sessionID, []byte(info))
	key := make([]byte, TrafficKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("ratchet traffic key: %w", err)
	}
	return key, nil
}
