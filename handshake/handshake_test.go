package handshake_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bramblewire/securelink/handshake"
	"github.com/bramblewire/securelink/identity"
	"github.com/bramblewire/securelink/identity/keys"
	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport/tcp"
	"github.com/bramblewire/securelink/wire"
)

func pipePair(t *testing.T) (*tcp.Conn, *tcp.Conn) {
	t.Helper()
	a, b := net.Pipe()
	return tcp.New(a), tcp.New(b)
}

func verifierFor(t *testing.T, kp identity.KeyPair) identity.KeyPair {
	t.Helper()
	v, err := keys.NewVerifier(kp.Type(), kp.PublicKeyBytes())
	require.NoError(t, err)
	return v
}

func TestHandshakeHappyPath(t *testing.T) {
	initConn, respConn := pipePair(t)
	defer initConn.Close()
	defer respConn.Close()

	iKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	rKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	registry := session.NewRegistry()

	var wg sync.WaitGroup
	wg.Add(2)

	var initState, respState *session.State
	var initErr, respErr error

	go func() {
		defer wg.Done()
		initState, initErr = handshake.Open(context.Background(), initConn, handshake.InitiatorOptions{
			Local: iKey,
			Peer:  verifierFor(t, rKey),
		})
	}()
	go func() {
		defer wg.Done()
		respState, respErr = handshake.Accept(context.Background(), respConn, registry, handshake.ResponderOptions{
			Local: rKey,
			Resolve: func(clientID uint32, sessionID [16]byte) (identity.KeyPair, error) {
				return verifierFor(t, iKey), nil
			},
		})
	}()
	wg.Wait()

	require.NoError(t, initErr)
	require.NoError(t, respErr)
	require.Equal(t, session.PhaseAuthenticated, initState.Phase())
	require.Equal(t, session.PhaseAuthenticated, respState.Phase())
	require.Equal(t, initState.SessionID(), respState.SessionID())
	require.Equal(t, initState.ClientID(), respState.ClientID())
	require.Equal(t, initState.TrafficKey(), respState.TrafficKey())
	require.NotEmpty(t, initState.TrafficKey())
	require.Equal(t, 1, registry.Len())
}

func TestHandshakeRejectsWrongPeerIdentity(t *testing.T) {
	initConn, respConn := pipePair(t)
	defer initConn.Close()
	defer respConn.Close()

	iKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	rKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	impostor, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	registry := session.NewRegistry()

	var wg sync.WaitGroup
	wg.Add(2)

	var initErr, respErr error
	go func() {
		defer wg.Done()
		_, initErr = handshake.Open(context.Background(), initConn, handshake.InitiatorOptions{
			Local: iKey,
			Peer:  verifierFor(t, rKey),
		})
	}()
	go func() {
		defer wg.Done()
		// Responder expects a different identity than the one I actually
		// signs with, per spec.md §8 P7 / §4.4 "Wrong peer identity".
		_, respErr = handshake.Accept(context.Background(), respConn, registry, handshake.ResponderOptions{
			Local: rKey,
			Resolve: func(clientID uint32, sessionID [16]byte) (identity.KeyPair, error) {
				return verifierFor(t, impostor), nil
			},
		})
	}()
	wg.Wait()

	require.Error(t, respErr)
	require.Error(t, initErr)
	require.Equal(t, 0, registry.Len())
}

func TestHandshakeRejectsDuplicateSessionID(t *testing.T) {
	registry := session.NewRegistry()
	var sessionID [16]byte
	sessionID[0] = 0x42
	require.NoError(t, registry.Register(sessionID))
	require.Error(t, registry.Register(sessionID))
}

// TestAcceptReturnsTransportOnTruncatedInitFrame covers spec.md scenario S6
// on the handshake side: a HANDSHAKE_INIT header declares a 100-byte
// payload, only 50 bytes arrive, then the initiator hangs up. Accept must
// surface Transport (or Malformed) rather than Timeout, since the
// connection closed well inside the handshake budget.
func TestAcceptReturnsTransportOnTruncatedInitFrame(t *testing.T) {
	receiver, sender := pipePair(t)
	defer receiver.Close()
	defer sender.Close()

	h := wire.Header{
		Version:       wire.ProtocolVersion,
		Type:          wire.MessageTypeHandshakeInit,
		TimestampUnix: uint64(time.Now().Unix()),
		PayloadSize:   100,
	}
	senderDone := make(chan error, 1)
	go func() {
		if err := sender.SendAll(wire.EncodeHeader(h)); err != nil {
			senderDone <- err
			return
		}
		if err := sender.SendAll(make([]byte, 50)); err != nil {
			senderDone <- err
			return
		}
		senderDone <- sender.Close()
	}()

	rKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	registry := session.NewRegistry()

	_, acceptErr := handshake.Accept(context.Background(), receiver, registry, handshake.ResponderOptions{
		Local: rKey,
		Resolve: func(clientID uint32, sessionID [16]byte) (identity.KeyPair, error) {
			return nil, errors.New("unreachable: never gets past the truncated frame")
		},
	})
	require.Error(t, acceptErr)
	require.NoError(t, <-senderDone)

	var pe *protocol.Error
	require.True(t, errors.As(acceptErr, &pe))
	require.NotEqual(t, protocol.KindTimeout, pe.Kind)
	require.Contains(t, []protocol.ErrorKind{protocol.KindTransport, protocol.KindMalformed}, pe.Kind)
	require.Equal(t, 0, registry.Len())
}
