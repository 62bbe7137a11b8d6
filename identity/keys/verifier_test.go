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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bramblewire/securelink/identity"
)

func TestNewVerifier_RoundTripsAllKeyTypes(t *testing.T) {
	cases := []struct {
		name     string
		keyType  identity.KeyType
		generate func() (identity.KeyPair, error)
	}{
		{"ed25519", identity.KeyTypeEd25519, GenerateEd25519KeyPair},
		{"secp256k1", identity.KeyTypeSecp256k1, GenerateSecp256k1KeyPair},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kp, err := tc.generate()
			require.NoError(t, err)

			verifier, err := NewVerifier(tc.keyType, kp.PublicKeyBytes())
			require.NoError(t, err)
			require.Equal(t, tc.keyType, verifier.Type())
			require.Equal(t, kp.ID(), verifier.ID())

			msg := []byte("transcript bytes to sign")
			sig, err := kp.Sign(msg)
			require.NoError(t, err)
			require.NoError(t, verifier.Verify(msg, sig))

			tampered := append([]byte{}, sig...)
			tampered[0] ^= 0xFF
			require.Error(t, verifier.Verify(msg, tampered))

			_, err = verifier.Sign(msg)
			require.Error(t, err, "a verifier built from public bytes alone must not be able to sign")
		})
	}
}

func TestNewVerifier_RSA(t *testing.T) {
	kp, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	verifier, err := NewVerifier(identity.KeyTypeRSA, kp.PublicKeyBytes())
	require.NoError(t, err)
	require.Equal(t, identity.KeyTypeRSA, verifier.Type())

	msg := []byte("handshake transcript")
	sig, err := kp.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(msg, sig))

	tampered := append([]byte{}, sig...)
	tampered[0] ^= 0xFF
	require.Error(t, verifier.Verify(msg, tampered))
}

func TestNewVerifier_RejectsMismatchedKeyBytes(t *testing.T) {
	_, err := NewVerifier(identity.KeyTypeEd25519, []byte("too short"))
	require.Error(t, err)

	_, err = NewVerifier(identity.KeyType("unknown"), []byte("anything"))
	require.Error(t, err)
}
