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
	"context"
	"time"

	"github.com/bramblewire/securelink/internal/logger"
	"github.com/bramblewire/securelink/primitives"
	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// Accept runs flights 1-3 of the handshake as the responder (spec.md
// §4.4), registering the session-id in registry for the duration of the
// handshake. On success the caller owns the registry entry and must
// registry.Remove it when the session later closes; on any failure Accept
// removes the entry itself before returning.
func Accept(ctx context.Context, conn transport.Conn, registry *session.Registry, opts ResponderOptions) (*session.State, error) {
	deadline := time.Now().Add(opts.timeout())

	h, payload, err := readFrame(conn, deadline)
	if err != nil {
		return nil, err
	}
	if h.Type != wire.MessageTypeHandshakeInit {
		err := protocol.New(protocol.KindProtocol, "expected HANDSHAKE_INIT")
		sendErrorBestEffort(conn, err)
		return nil, err
	}
	initRecord, decErr := wire.DecodeHandshakeRecord(payload)
	if decErr != nil {
		err := protocol.Wrap(protocol.KindMalformed, "decode handshake init", decErr)
		sendErrorBestEffort(conn, err)
		return nil, err
	}

	if err := registry.Register(initRecord.SessionID); err != nil {
		dupErr := protocol.Wrap(protocol.KindDuplicateSession, "duplicate handshake session-id", err)
		sendErrorBestEffort(conn, dupErr)
		return nil, dupErr
	}

	st, err := acceptLocked(ctx, conn, initRecord, deadline, opts)
	if err != nil {
		registry.Remove(initRecord.SessionID)
		return nil, err
	}
	logInfo(opts.Logger, "handshake accepted", logger.String("session_id", hexSessionID(initRecord.SessionID)))
	return st, nil
}

// acceptLocked runs the validation and key-derivation steps of Accept once
// the session-id is registered. The registry entry's lifetime past this
// point is the caller's responsibility (spec.md §5: freed when the session
// closes).
func acceptLocked(ctx context.Context, conn transport.Conn, initRecord wire.HandshakeRecord, deadline time.Time, opts ResponderOptions) (*session.State, error) {
	peerKP, err := opts.Resolve(initRecord.ClientID, initRecord.SessionID)
	if err != nil {
		authErr := protocol.Wrap(protocol.KindAuthFailure, "resolve peer identity", err)
		sendErrorBestEffort(conn, authErr)
		return nil, authErr
	}

	var nonceI [wire.IVSize]byte
	copy(nonceI[:], initRecord.Nonce[:])
	initTx := initTranscript(initRecord.SessionID, initRecord.EphemeralPublicKey, nonceI)
	if err := verifyBounded(ctx, peerKP, initTx, initRecord.Signature); err != nil {
		authErr := protocol.Wrap(protocol.KindAuthFailure, "verify handshake init signature", err)
		sendErrorBestEffort(conn, authErr)
		logWarn(opts.Logger, "handshake init signature rejected", logger.String("session_id", hexSessionID(initRecord.SessionID)))
		return nil, authErr
	}

	st, err := session.NewResponderState()
	if err != nil {
		return nil, protocol.Wrap(protocol.KindTransport, "create responder session state", err)
	}
	if err := st.SetPeerHandshakeIDs(initRecord.ClientID, initRecord.SessionID); err != nil {
		return nil, protocol.Wrap(protocol.KindProtocol, "bind handshake ids", err)
	}

	dh, err := primitives.GenerateDHKeyPair()
	if err != nil {
		err := protocol.Wrap(protocol.KindTransport, "generate ephemeral dh key", err)
		st.Fail(err)
		return nil, err
	}
	nonceRBytes, err := primitives.RandomBytes(wire.IVSize)
	if err != nil {
		err := protocol.Wrap(protocol.KindTransport, "generate nonce", err)
		st.Fail(err)
		return nil, err
	}
	var nonceR [wire.IVSize]byte
	copy(nonceR[:], nonceRBytes)
	var ephPubR [wire.DHPublicKeySize]byte
	copy(ephPubR[:], dh.PublicBytes())

	sig, err := opts.Local.Sign(responseTranscript(initRecord.SessionID, ephPubR, nonceR, nonceI))
	if err != nil {
		err := protocol.Wrap(protocol.KindAuthFailure, "sign handshake response", err)
		st.Fail(err)
		return nil, err
	}
	respRecord := wire.HandshakeRecord{
		ClientID:           initRecord.ClientID,
		SessionID:          initRecord.SessionID,
		ForwardSecrecyMode: wire.ForwardSecrecyPerfect,
		EphemeralPublicKey: ephPubR,
		Nonce:              nonceR,
		Signature:          sig,
	}
	if err := writeFrame(conn, wire.MessageTypeHandshakeResponse, wire.EncodeHandshakeRecord(respRecord)); err != nil {
		st.Fail(err)
		return nil, err
	}
	if err := st.Advance(session.PhaseAwaitComplete); err != nil {
		err := protocol.Wrap(protocol.KindProtocol, "advance to await-complete", err)
		st.Fail(err)
		return nil, err
	}

	sharedSecret, err := dh.DeriveSharedSecret(initRecord.EphemeralPublicKey[:])
	if err != nil {
		err := protocol.Wrap(protocol.KindTransport, "derive dh shared secret", err)
		st.Fail(err)
		return nil, err
	}
	trafficKey, err := primitives.DeriveTrafficKey(sharedSecret, nonceI[:], nonceR[:], epochZeroInfo)
	dh.Zero()
	zeroBytes(sharedSecret)
	if err != nil {
		err := protocol.Wrap(protocol.KindTransport, "derive initial traffic key", err)
		st.Fail(err)
		return nil, err
	}
	st.SetTrafficKey(trafficKey)
	zeroBytes(trafficKey)

	h, payload, err := readFrame(conn, deadline)
	if err != nil {
		st.Fail(err)
		return nil, err
	}
	if h.Type == wire.MessageTypeError {
		peerErr := decodeErrorFrame(payload)
		st.Fail(peerErr)
		return nil, peerErr
	}
	if h.Type != wire.MessageTypeHandshakeComplete {
		err := protocol.New(protocol.KindProtocol, "expected HANDSHAKE_COMPLETE")
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, err
	}
	if err := st.Advance(session.PhaseAuthenticated); err != nil {
		err := protocol.Wrap(protocol.KindProtocol, "advance to authenticated", err)
		st.Fail(err)
		return nil, err
	}
	st.SetPeerIdentity(peerKP)
	return st, nil
}
