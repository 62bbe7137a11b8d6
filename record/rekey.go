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

package record

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/bramblewire/securelink/internal/logger"
	"github.com/bramblewire/securelink/primitives"
	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// ratchetGroup dedupes concurrent ratchet derivations for the same
// session-id: Rotate (this side initiating) and a racing inbound
// KEY_ROTATION would otherwise both derive the same epoch's key
// independently, which is harmless but wasteful.
var ratchetGroup singleflight.Group

func ratchetOnce(sessionID [wire.SessionIDSize]byte, currentKey []byte, newEpoch uint32) ([]byte, error) {
	key := fmt.Sprintf("%s/%d", hex.EncodeToString(sessionID[:]), newEpoch)
	v, err, _ := ratchetGroup.Do(key, func() (interface{}, error) {
		return primitives.RatchetTrafficKey(currentKey, sessionID[:], newEpoch)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Rotate runs the rekey subprotocol as the initiating side (spec.md §4.5):
// it sends KEY_ROTATION, blocks for the peer's echo within
// opts.rekeyTimeout, and installs the new epoch's traffic key.
func Rotate(conn transport.Conn, st *session.State, opts Options) error {
	if st.Phase() != session.PhaseAuthenticated {
		return protocol.New(protocol.KindProtocol, "cannot rekey in phase "+st.Phase().String())
	}

	sessionID := st.SessionID()
	currentKey := append([]byte{}, st.TrafficKey()...)
	newEpoch := st.Epoch() + 1

	if err := st.BeginRekey(); err != nil {
		return protocol.Wrap(protocol.KindProtocol, "begin rekey", err)
	}
	if err := sendFrame(conn, controlFrame(wire.MessageTypeKeyRotation), nil); err != nil {
		st.Fail(err)
		return err
	}

	f, err := readFrame(conn, opts.rekeyTimeout())
	if err != nil {
		st.Fail(err)
		return err
	}
	if f.Header.Type == wire.MessageTypeError {
		peerErr := decodeErrorFrame(f.Payload)
		st.Fail(peerErr)
		return peerErr
	}
	if f.Header.Type != wire.MessageTypeKeyRotation {
		err := protocol.New(protocol.KindProtocol, "expected KEY_ROTATION echo")
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return err
	}

	newKey, err := ratchetOnce(sessionID, currentKey, newEpoch)
	if err != nil {
		err := protocol.Wrap(protocol.KindTransport, "ratchet traffic key", err)
		st.Fail(err)
		return err
	}
	if err := st.CompleteRekey(newKey); err != nil {
		err := protocol.Wrap(protocol.KindProtocol, "complete rekey", err)
		st.Fail(err)
		return err
	}
	logInfo(opts.Logger, "rekey complete", logger.Int("epoch", int(st.Epoch())))
	return nil
}

// handlePeerRekey runs the responding side of the rekey subprotocol,
// invoked from recvOnce when a KEY_ROTATION frame arrives outside of an
// explicit Rotate call (spec.md §4.5 step 2).
func handlePeerRekey(conn transport.Conn, st *session.State, opts Options) error {
	if st.Phase() != session.PhaseAuthenticated {
		return protocol.New(protocol.KindProtocol, "received KEY_ROTATION in phase "+st.Phase().String())
	}

	sessionID := st.SessionID()
	currentKey := append([]byte{}, st.TrafficKey()...)
	newEpoch := st.Epoch() + 1

	if err := st.BeginRekey(); err != nil {
		return protocol.Wrap(protocol.KindProtocol, "begin rekey", err)
	}
	newKey, err := ratchetOnce(sessionID, currentKey, newEpoch)
	if err != nil {
		return protocol.Wrap(protocol.KindTransport, "ratchet traffic key", err)
	}
	if err := st.CompleteRekey(newKey); err != nil {
		return protocol.Wrap(protocol.KindProtocol, "complete rekey", err)
	}
	if err := sendFrame(conn, controlFrame(wire.MessageTypeKeyRotation), nil); err != nil {
		return err
	}
	logInfo(opts.Logger, "rekey accepted", logger.Int("epoch", int(st.Epoch())))
	return nil
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
		return protocol.New(protocol.KindAuthFailure, "peer rejected record: bad signature")
	case wire.ErrorCodeDecryptFail:
		return protocol.New(protocol.KindAuthFailure, "peer rejected record: decrypt fail")
	case wire.ErrorCodeReplay:
		return protocol.New(protocol.KindReplay, "peer rejected record: replay")
	case wire.ErrorCodeTimeout:
		return protocol.New(protocol.KindTimeout, "peer rejected record: timeout")
	default:
		return protocol.New(protocol.KindProtocol, "peer rejected record")
	}
}
