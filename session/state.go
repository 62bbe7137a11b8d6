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

package session

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/bramblewire/securelink/identity"
	"github.com/bramblewire/securelink/primitives"
	"github.com/bramblewire/securelink/protocol"
)

// State is the single source of truth for one connection's cryptographic
// session, per spec.md §4.3. The handshake engine and record layer are the
// only callers of its mutators; everything else only reads.
//
// A mutex guards every field because handshake I/O and record I/O can run
// on separate goroutines reading session state for logging/metrics while
// the engine mutates it; the protocol's own ordering guarantees (spec.md
// §5) mean callers never contend on it under normal operation.
type State struct {
	mu sync.Mutex

	role      Role
	clientID  uint32
	sessionID [16]byte
	phase     Phase

	peerIdentity identity.KeyPair // set once the handshake verifies the peer's transcript signature

	trafficKey []byte
	sendSeq    uint32
	recvSeq    uint32
	epoch      uint32

	createdAt    time.Time
	lastActivity time.Time
	failCause    error
}

// NewInitiatorState creates session state for the side that will send
// HANDSHAKE_INIT: it picks a fresh ClientID and SessionID via the
// primitives adapter's random source, per spec.md §4.4 flight 1.
func NewInitiatorState() (*State, error) {
	return newState(RoleInitiator, true)
}

// NewResponderState creates session state for the side that waits for
// HANDSHAKE_INIT. ClientID and SessionID are filled in from the received
// record once it validates (see SetPeerHandshakeIDs).
func NewResponderState() (*State, error) {
	return newState(RoleResponder, false)
}

func newState(role Role, assignIDs bool) (*State, error) {
	now := time.Now()
	s := &State{
		role:         role,
		phase:        PhaseInit,
		createdAt:    now,
		lastActivity: now,
	}
	if assignIDs {
		idBytes, err := primitives.RandomBytes(4)
		if err != nil {
			return nil, fmt.Errorf("generate client id: %w", err)
		}
		s.clientID = binary.LittleEndian.Uint32(idBytes)
		sidBytes, err := primitives.RandomBytes(16)
		if err != nil {
			return nil, fmt.Errorf("generate session id: %w", err)
		}
		copy(s.sessionID[:], sidBytes)
	}
	return s, nil
}

// SetPeerHandshakeIDs records the ClientID/SessionID the responder reads
// off the wire in HANDSHAKE_INIT. It may only be called once, before any
// phase transition.
func (s *State) SetPeerHandshakeIDs(clientID uint32, sessionID [16]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInit {
		return fmt.Errorf("%w: cannot set handshake ids in phase %s", ErrInvalidTransition, s.phase)
	}
	s.clientID = clientID
	s.sessionID = sessionID
	return nil
}

func (s *State) Role() Role { s.mu.Lock(); defer s.mu.Unlock(); return s.role }

func (s *State) ClientID() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.clientID }

func (s *State) SessionID() [16]byte { s.mu.Lock(); defer s.mu.Unlock(); return s.sessionID }

func (s *State) Phase() Phase { s.mu.Lock(); defer s.mu.Unlock(); return s.phase }

func (s *State) Epoch() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.epoch }

func (s *State) SendSeq() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.sendSeq }

func (s *State) RecvSeq() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.recvSeq }

func (s *State) LastActivity() time.Time { s.mu.Lock(); defer s.mu.Unlock(); return s.lastActivity }

func (s *State) FailCause() error { s.mu.Lock(); defer s.mu.Unlock(); return s.failCause }

// PeerIdentity returns the verified long-term public key of the peer, or
// nil before the handshake authenticates it.
func (s *State) PeerIdentity() identity.KeyPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerIdentity
}

// SetPeerIdentity records the peer's long-term identity once its
// transcript signature has verified.
func (s *State) SetPeerIdentity(kp identity.KeyPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerIdentity = kp
}

// Touch bumps the last-activity timestamp; called on every accepted
// inbound or outbound frame.
func (s *State) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// Advance enforces spec.md §3 I4: phase transitions are one-way except
// AUTHENTICATED<->REKEYING; FAILED and CLOSED are terminal.
func (s *State) Advance(next Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(next)
}

func (s *State) advanceLocked(next Phase) error {
	if s.phase == PhaseClosed || s.phase == PhaseFailed {
		return fmt.Errorf("%w: session is %s", ErrInvalidTransition, s.phase)
	}
	if s.phase == PhaseAuthenticated && next == PhaseRekeying {
		s.phase = next
		return nil
	}
	if s.phase == PhaseRekeying && next == PhaseAuthenticated {
		s.phase = next
		return nil
	}
	if next == PhaseFailed || next == PhaseClosed {
		s.phase = next
		return nil
	}
	if next <= s.phase {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, next)
	}
	s.phase = next
	return nil
}

// SetTrafficKey installs the current epoch's AEAD key. The previous key's
// bytes, if any, are zeroed first — spec.md §3 ownership: the session
// exclusively owns its traffic key and never retains a stale one.
func (s *State) SetTrafficKey(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	zero(s.trafficKey)
	s.trafficKey = append([]byte{}, key...)
}

// TrafficKey returns the current epoch's AEAD key bytes. Callers must not
// retain a reference past a rekey or Close.
func (s *State) TrafficKey() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trafficKey
}

// BumpSendSeq returns the next sequence number to stamp on an outbound
// record. It enforces spec.md §3 I1/I2: send-seq is strictly increasing,
// and once the epoch's 2^32-1 message budget is exhausted the caller must
// rekey before sending again.
func (s *State) BumpSendSeq() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendSeq >= MaxMessagesPerEpoch {
		return 0, ErrRekeyRequired
	}
	s.sendSeq++
	s.lastActivity = time.Now()
	return s.sendSeq, nil
}

// AcceptRecvSeq implements spec.md §4.3's accept_recv_seq policy: strict
// monotonic, no sliding window, since the transport is reliable and
// ordered (spec.md §3 I1, §9 design note).
func (s *State) AcceptRecvSeq(n uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= s.recvSeq {
		return ErrReplay
	}
	s.recvSeq = n
	s.lastActivity = time.Now()
	return nil
}

// BeginRekey transitions AUTHENTICATED -> REKEYING. Only valid while
// authenticated; application sends are blocked until CompleteRekey.
func (s *State) BeginRekey() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(PhaseRekeying)
}

// CompleteRekey installs the new epoch's traffic key, increments the
// epoch counter, resets both sequence counters to zero (spec.md §4.5 step
// 2), and transitions back to AUTHENTICATED.
func (s *State) CompleteRekey(newKey []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRekeying {
		return fmt.Errorf("%w: complete rekey from phase %s", ErrInvalidTransition, s.phase)
	}
	zero(s.trafficKey)
	s.trafficKey = append([]byte{}, newKey...)
	s.epoch++
	s.sendSeq = 0
	s.recvSeq = 0
	s.phase = PhaseAuthenticated
	s.lastActivity = time.Now()
	return nil
}

// Close transitions to CLOSED and zeroes the traffic key. Idempotent.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed || s.phase == PhaseFailed {
		return
	}
	zero(s.trafficKey)
	s.trafficKey = nil
	s.phase = PhaseClosed
}

// Fail transitions to FAILED, records the cause, and zeroes the traffic
// key. Idempotent; the first cause wins. A *protocol.Error whose Fatal()
// is false (today, only Closed) is not a session failure and leaves the
// phase untouched — callers that already know a cause is peer-initiated
// orderly shutdown should call Close instead, but Fail stays safe to call
// either way.
func (s *State) Fail(cause error) {
	if pe, ok := cause.(*protocol.Error); ok && !pe.Fatal() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed || s.phase == PhaseFailed {
		return
	}
	zero(s.trafficKey)
	s.trafficKey = nil
	s.phase = PhaseFailed
	s.failCause = cause
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
