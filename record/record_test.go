package record_test

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
	"github.com/bramblewire/securelink/record"
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

// authenticatedPair runs a real handshake over an in-memory pipe and
// returns both sides' connections and resulting session.State, already in
// PhaseAuthenticated, so record-layer tests exercise the same traffic key
// and session-id a real deployment would produce.
func authenticatedPair(t *testing.T) (initConn, respConn *tcp.Conn, initState, respState *session.State) {
	t.Helper()
	initConn, respConn = pipePair(t)

	iKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)
	rKey, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	registry := session.NewRegistry()

	var wg sync.WaitGroup
	wg.Add(2)
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
	return initConn, respConn, initState, respState
}

func TestSendRecvRoundTrip(t *testing.T) {
	initConn, respConn, initState, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	done := make(chan error, 1)
	go func() {
		done <- record.Send(initConn, initState, []byte("hello responder"), record.Options{})
	}()
	pt, err := record.Recv(respConn, respState, record.Options{})
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, "hello responder", string(pt))
	require.EqualValues(t, 1, initState.SendSeq())
	require.EqualValues(t, 1, respState.RecvSeq())
}

func TestSendRecvMultipleMessagesInOrder(t *testing.T) {
	initConn, respConn, initState, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	messages := []string{"one", "two", "three"}
	done := make(chan error, 1)
	go func() {
		for _, m := range messages {
			if err := record.Send(initConn, initState, []byte(m), record.Options{}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for _, want := range messages {
		pt, err := record.Recv(respConn, respState, record.Options{})
		require.NoError(t, err)
		require.Equal(t, want, string(pt))
	}
	require.NoError(t, <-done)
}

func TestRotateRekeysBothSidesAndResetsCounters(t *testing.T) {
	initConn, respConn, initState, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	preDone := make(chan error, 1)
	go func() {
		preDone <- record.Send(initConn, initState, []byte("pre-rekey"), record.Options{})
	}()
	_, err := record.Recv(respConn, respState, record.Options{})
	require.NoError(t, err)
	require.NoError(t, <-preDone)

	// The responder drives Recv in a goroutine so it can transparently
	// absorb the initiator's KEY_ROTATION frame (spec.md §4.5 step 2).
	recvDone := make(chan struct {
		pt  []byte
		err error
	}, 1)
	go func() {
		pt, err := record.Recv(respConn, respState, record.Options{})
		recvDone <- struct {
			pt  []byte
			err error
		}{pt, err}
	}()

	rotateDone := make(chan error, 1)
	go func() {
		rotateDone <- record.Rotate(initConn, initState, record.Options{})
	}()
	require.NoError(t, <-rotateDone)

	require.NoError(t, record.Send(initConn, initState, []byte("post-rekey"), record.Options{}))
	res := <-recvDone
	require.NoError(t, res.err)
	require.Equal(t, "post-rekey", string(res.pt))

	require.EqualValues(t, 1, initState.Epoch())
	require.EqualValues(t, 1, respState.Epoch())
	require.EqualValues(t, 1, initState.SendSeq())
	require.EqualValues(t, 1, respState.RecvSeq())
	require.Equal(t, initState.TrafficKey(), respState.TrafficKey())
}

func TestRecvRejectsTamperedCiphertext(t *testing.T) {
	initConn, respConn, initState, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	tamperedConn := &tamperingConn{Conn: initConn}

	done := make(chan error, 1)
	go func() {
		done <- record.Send(tamperedConn, initState, []byte("trust me"), record.Options{})
	}()
	_, err := record.Recv(respConn, respState, record.Options{})
	require.Error(t, err)
	require.NoError(t, <-done)
	require.Equal(t, session.PhaseFailed, respState.Phase())
}

// tamperingConn flips the last byte of every payload write, simulating an
// on-the-wire bit flip so the AEAD tag check must fail (spec.md §8 P5).
type tamperingConn struct {
	*tcp.Conn
	wroteHeader bool
}

func (c *tamperingConn) SendAll(b []byte) error {
	if !c.wroteHeader {
		c.wroteHeader = true
		return c.Conn.SendAll(b)
	}
	tampered := append([]byte{}, b...)
	tampered[len(tampered)-1] ^= 0xFF
	return c.Conn.SendAll(tampered)
}

// TestRecvReturnsTransportOnTruncatedFrame covers spec.md scenario S6: a
// header declares a 100-byte payload, only 50 bytes arrive, then the peer
// hangs up. Recv must surface Transport (or Malformed) — never a partial
// plaintext, and critically never Timeout, since the connection was closed
// well inside the idle deadline.
func TestRecvReturnsTransportOnTruncatedFrame(t *testing.T) {
	initConn, respConn, _, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	receiver, sender := pipePair(t)
	defer receiver.Close()
	defer sender.Close()

	h := wire.Header{
		Version:       wire.ProtocolVersion,
		Type:          wire.MessageTypeData,
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

	pt, err := record.Recv(receiver, respState, record.Options{})
	require.Error(t, err)
	require.Nil(t, pt)
	require.NoError(t, <-senderDone)

	var pe *protocol.Error
	require.True(t, errors.As(err, &pe))
	require.NotEqual(t, protocol.KindTimeout, pe.Kind)
	require.Contains(t, []protocol.ErrorKind{protocol.KindTransport, protocol.KindMalformed}, pe.Kind)
	require.Equal(t, session.PhaseFailed, respState.Phase())
}
