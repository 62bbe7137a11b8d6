package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramblewire/securelink/protocol"
	"github.com/bramblewire/securelink/record"
	"github.com/bramblewire/securelink/session"
)

func TestCloseMarksLocalStateClosed(t *testing.T) {
	initConn, respConn, initState, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	// net.Pipe is synchronous: the CLOSE frame is only written once the
	// peer reads it.
	go func() { _, _ = record.Recv(respConn, respState, record.Options{}) }()

	require.NoError(t, record.Close(initConn, initState))
	assert.Equal(t, session.PhaseClosed, initState.Phase())
}

func TestCloseSurfacesAsClosedErrorOnPeerRecv(t *testing.T) {
	initConn, respConn, initState, respState := authenticatedPair(t)
	defer initConn.Close()
	defer respConn.Close()

	closeDone := make(chan error, 1)
	go func() { closeDone <- record.Close(initConn, initState) }()

	_, err := record.Recv(respConn, respState, record.Options{})
	require.NoError(t, <-closeDone)
	require.Error(t, err)
	perr, ok := err.(*protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.KindClosed, perr.Kind)
}
