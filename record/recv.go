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
	"github.com/bramblewire/securelink/internal/logger"
	"github.com/bramblewire/securelink/primitives"
	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// Recv reads the next frame from conn and returns its decrypted
// application payload, per spec.md §4.5's receive path. A peer-initiated
// KEY_ROTATION frame (spec.md §4.5's rekey subprotocol step 2) is handled
// transparently: Recv completes the rekey and echoes KEY_ROTATION before
// looping to read the next frame, so the caller only ever sees application
// plaintext or an error.
//
// Any failure here is fatal to the session per spec.md §7: the session is
// left FAILED and an ERROR_MESSAGE is sent best-effort before returning,
// except on a decrypt failure, where the session closes silently to avoid
// giving an attacker a decryption oracle.
func Recv(conn transport.Conn, st *session.State, opts Options) ([]byte, error) {
	for {
		plaintext, rotated, err := recvOnce(conn, st, opts)
		if err != nil {
			return nil, err
		}
		if rotated {
			continue
		}
		return plaintext, nil
	}
}

func recvOnce(conn transport.Conn, st *session.State, opts Options) (plaintext []byte, rotated bool, err error) {
	phase := st.Phase()
	if phase != session.PhaseAuthenticated && phase != session.PhaseRekeying {
		return nil, false, protocol.New(protocol.KindProtocol, "cannot recv in phase "+phase.String())
	}

	f, err := readFrame(conn, opts.idleTimeout())
	if err != nil {
		st.Fail(err)
		return nil, false, err
	}

	switch f.Header.Type {
	case wire.MessageTypeKeyRotation:
		if err := handlePeerRekey(conn, st, opts); err != nil {
			st.Fail(err)
			sendErrorBestEffort(conn, err)
			return nil, false, err
		}
		return nil, true, nil
	case wire.MessageTypeClose:
		st.Close()
		return nil, false, protocol.New(protocol.KindClosed, "peer closed the session")
	case wire.MessageTypeError:
		peerErr := decodeErrorFrame(f.Payload)
		st.Fail(peerErr)
		return nil, false, peerErr
	case wire.MessageTypeData:
		// handled below
	default:
		err := protocol.New(protocol.KindProtocol, "unexpected message type for record phase")
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, false, err
	}

	rec, decErr := wire.DecodeEncryptedRecord(f.Payload)
	if decErr != nil {
		err := protocol.Wrap(protocol.KindMalformed, "decode encrypted record", decErr)
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, false, err
	}
	if rec.SessionID != st.SessionID() {
		err := protocol.New(protocol.KindProtocol, "encrypted record session-id mismatch")
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, false, err
	}
	if err := st.AcceptRecvSeq(f.Header.SequenceNumber); err != nil {
		err := protocol.Wrap(protocol.KindReplay, "sequence check", err)
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, false, err
	}

	aead, err := primitives.NewAEAD(st.TrafficKey())
	if err != nil {
		err := protocol.Wrap(protocol.KindTransport, "build aead", err)
		st.Fail(err)
		return nil, false, err
	}
	aad := additionalData(f.HeaderRaw, rec.SessionID, rec.MessageID)
	pt, openErr := aead.Open(nil, rec.IV[:], rec.Ciphertext, aad)
	if openErr != nil {
		// Decrypt failures may indicate tampering; close silently rather
		// than announce DECRYPT_FAIL, per spec.md §7's oracle-avoidance
		// note.
		authErr := protocol.Wrap(protocol.KindAuthFailure, "aead open failed", openErr)
		st.Fail(authErr)
		return nil, false, authErr
	}

	st.Touch()
	logInfo(opts.Logger, "record received", logger.Int("sequence", int(f.Header.SequenceNumber)))
	return pt, false, nil
}
