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
	"fmt"
	"time"

	"github.com/bramblewire/securelink/internal/logger"
	"github.com/bramblewire/securelink/primitives"
	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// Send seals plaintext into an ENCRYPTED_MESSAGE frame and writes it to
// conn, per spec.md §4.5's send path. It fails with protocol.KindProtocol
// if the session is not AUTHENTICATED (e.g. a rekey is in flight) and with
// protocol.KindProtocol wrapping session.ErrRekeyRequired once the
// epoch's 2^32-1 message budget (I2) is exhausted; the caller must Rotate
// before retrying.
func Send(conn transport.Conn, st *session.State, plaintext []byte, opts Options) error {
	if st.Phase() != session.PhaseAuthenticated {
		return protocol.New(protocol.KindProtocol, fmt.Sprintf("cannot send in phase %s", st.Phase()))
	}

	seq, err := st.BumpSendSeq()
	if err != nil {
		return protocol.Wrap(protocol.KindProtocol, "bump send sequence", err)
	}
	iv, err := primitives.RandomIV()
	if err != nil {
		return protocol.Wrap(protocol.KindTransport, "generate iv", err)
	}
	aead, err := primitives.NewAEAD(st.TrafficKey())
	if err != nil {
		return protocol.Wrap(protocol.KindTransport, "build aead", err)
	}

	sessionID := st.SessionID()
	ciphertextLen := len(plaintext) + aead.Overhead()
	recordLen := wire.SessionIDSize + 4 + wire.IVSize + ciphertextLen

	h := wire.Header{
		Version:        wire.ProtocolVersion,
		Type:           wire.MessageTypeData,
		SequenceNumber: seq,
		TimestampUnix:  uint64(time.Now().Unix()),
		PayloadSize:    uint16(recordLen),
	}
	headerBytes := wire.EncodeHeader(h)
	aad := additionalData(headerBytes, sessionID, seq)
	ciphertext := aead.Seal(nil, iv, plaintext, aad)

	var ivArr [wire.IVSize]byte
	copy(ivArr[:], iv)
	payload := wire.EncodeEncryptedRecord(wire.EncryptedRecord{
		SessionID:  sessionID,
		MessageID:  seq,
		IV:         ivArr,
		Ciphertext: ciphertext,
	})
	if err := sendFrame(conn, h, payload); err != nil {
		return err
	}
	st.Touch()
	logInfo(opts.Logger, "record sent", logger.Int("sequence", int(seq)))
	return nil
}
