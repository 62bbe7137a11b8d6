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

package handshake

// initTranscript is the byte string I signs in HANDSHAKE_INIT: session-id
// || ephemeral-pub || nonce_I (spec.md §4.4 flight 1).
func initTranscript(sessionID [16]byte, ephPub [32]byte, nonceI [12]byte) []byte {
	buf := make([]byte, 0, 16+32+12)
	buf = append(buf, sessionID[:]...)
	buf = append(buf, ephPub[:]...)
	buf = append(buf, nonceI[:]...)
	return buf
}

// responseTranscript is the byte string R signs in HANDSHAKE_RESPONSE:
// session-id || ephemeral-pub || nonce_R || nonce_I (spec.md §4.4 flight
// 2). Binding nonce_I into R's own signature prevents reflection and
// unknown-key-share attacks.
func responseTranscript(sessionID [16]byte, ephPub [32]byte, nonceR, nonceI [12]byte) []byte {
	buf := make([]byte, 0, 16+32+12+12)
	buf = append(buf, sessionID[:]...)
	buf = append(buf, ephPub[:]...)
	buf = append(buf, nonceR[:]...)
	buf = append(buf, nonceI[:]...)
	return buf
}
