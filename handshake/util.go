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

import (
	"encoding/hex"

	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/wire"
)

// epochZeroInfo is the HKDF info label for the traffic key derived at
// handshake completion, before any rekey (spec.md §4.4 flight 2: "traffic_key
// = kdf(ss, nonce_I || nonce_R || epoch=0)").
const epochZeroInfo = "channel-traffic-key-epoch-0"

func hexSessionID(id [wire.SessionIDSize]byte) string { return hex.EncodeToString(id[:]) }

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// decodeErrorFrame turns an ERROR_MESSAGE payload into the matching
// *protocol.Error, defaulting to Protocol if the code is unrecognized or
// the payload is malformed.
func decodeErrorFrame(payload []byte) *protocol.Error {
	rec, err := wire.DecodeErrorRecord(payload)
	if err != nil {
		return protocol.New(protocol.KindProtocol, "peer sent malformed ERROR_MESSAGE")
	}
	switch rec.Code {
	case wire.ErrorCodeBadSignature:
		return protocol.New(protocol.KindAuthFailure, "peer rejected handshake: bad signature")
	case wire.ErrorCodeReplay:
		return protocol.New(protocol.KindReplay, "peer rejected handshake: replay")
	case wire.ErrorCodeDuplicateSession:
		return protocol.New(protocol.KindDuplicateSession, "peer rejected handshake: duplicate session")
	case wire.ErrorCodeTimeout:
		return protocol.New(protocol.KindTimeout, "peer rejected handshake: timeout")
	default:
		return protocol.New(protocol.KindProtocol, "peer rejected handshake")
	}
}
