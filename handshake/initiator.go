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

// Open runs flights 1 and 3 of the handshake as the initiator (spec.md
// §4.4), returning an AUTHENTICATED session.State with its initial traffic
// key installed, or a *protocol.Error. On any failure the session (if one
// was created) is left FAILED and conn is not closed — the caller closes
// it, matching transport/tcp and transport/ws owning their own lifecycle.
func Open(ctx context.Context, conn transport.Conn, opts InitiatorOptions) (*session.State, error) {
	deadline := time.Now().Add(opts.timeout())

	st, err := session.NewInitiatorState()
	if err != nil {
		return nil, protocol.Wrap(protocol.KindTransport, "create initiator session state", err)
	}

	dh, err := primitives.GenerateDHKeyPair()
	if err != nil {
		st.Fail(err)
		return nil, protocol.Wrap(protocol.KindTransport, "generate ephemeral dh key", err)
	}
	nonceIBytes, err := primitives.RandomBytes(wire.IVSize)
	if err != nil {
		st.Fail(err)
		return nil, protocol.Wrap(protocol.KindTransport, "generate nonce", err)
	}
	var nonceI [wire.IVSize]byte
	copy(nonceI[:], nonceIBytes)
	var ephPubI [wire.DHPublicKeySize]byte
	copy(ephPubI[:], dh.PublicBytes())
	sessionID := st.SessionID()

	sig, err := opts.Local.Sign(initTranscript(sessionID, ephPubI, nonceI))
	if err != nil {
		st.Fail(err)
		return nil, protocol.Wrap(protocol.KindAuthFailure, "sign handshake init", err)
	}

	initRecord := wire.HandshakeRecord{
		ClientID:           st.ClientID(),
		SessionID:          sessionID,
		ForwardSecrecyMode: wire.ForwardSecrecyPerfect,
		EphemeralPublicKey: ephPubI,
		Nonce:              nonceI,
		Signature:          sig,
	}
	if err := writeFrame(conn, wire.MessageTypeHandshakeInit, wire.EncodeHandshakeRecord(initRecord)); err != nil {
		st.Fail(err)
		return nil, err
	}
	if err := st.Advance(session.PhaseAwaitResponse); err != nil {
		st.Fail(err)
		return nil, protocol.Wrap(protocol.KindProtocol, "advance to await-response", err)
	}
	logInfo(opts.Logger, "handshake init sent", logger.String("session_id", hexSessionID(sessionID)))

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
	if h.Type != wire.MessageTypeHandshakeResponse {
		err := protocol.New(protocol.KindProtocol, "expected HANDSHAKE_RESPONSE")
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, err
	}
	respRecord, decErr := wire.DecodeHandshakeRecord(payload)
	if decErr != nil {
		err := protocol.Wrap(protocol.KindMalformed, "decode handshake response", decErr)
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, err
	}
	if respRecord.SessionID != sessionID {
		err := protocol.New(protocol.KindProtocol, "handshake response session-id mismatch")
		st.Fail(err)
		sendErrorBestEffort(conn, err)
		return nil, err
	}

	var nonceR [wire.IVSize]byte
	copy(nonceR[:], respRecord.Nonce[:])
	transcript := responseTranscript(sessionID, respRecord.EphemeralPublicKey, nonceR, nonceI)
	if err := verifyBounded(ctx, opts.Peer, transcript, respRecord.Signature); err != nil {
		authErr := protocol.Wrap(protocol.KindAuthFailure, "verify handshake response signature", err)
		st.Fail(authErr)
		sendErrorBestEffort(conn, authErr)
		logWarn(opts.Logger, "handshake response signature rejected", logger.String("session_id", hexSessionID(sessionID)))
		return nil, authErr
	}

	sharedSecret, err := dh.DeriveSharedSecret(respRecord.EphemeralPublicKey[:])
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

	if err := writeFrame(conn, wire.MessageTypeHandshakeComplete, nil); err != nil {
		st.Fail(err)
		return nil, err
	}
	if err := st.Advance(session.PhaseAuthenticated); err != nil {
		st.Fail(err)
		return nil, protocol.Wrap(protocol.KindProtocol, "advance to authenticated", err)
	}
	st.SetPeerIdentity(opts.Peer)
	logInfo(opts.Logger, "handshake complete", logger.String("session_id", hexSessionID(sessionID)))
	return st, nil
}
