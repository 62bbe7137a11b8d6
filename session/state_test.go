package session_test

import (
	"testing"

	"github.com/bramblewire/securelink/session"
	"github.com/stretchr/testify/require"
)

func TestInitiatorStatesGetDistinctIDs(t *testing.T) {
	a, err := session.NewInitiatorState()
	require.NoError(t, err)
	b, err := session.NewInitiatorState()
	require.NoError(t, err)
	require.NotEqual(t, a.SessionID(), b.SessionID())
	require.NotEqual(t, a.ClientID(), b.ClientID())
}

func TestPhaseTransitionsAreOneWay(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	require.Equal(t, session.PhaseInit, s.Phase())

	require.NoError(t, s.Advance(session.PhaseAwaitResponse))
	require.NoError(t, s.Advance(session.PhaseAuthenticated))

	// Can't go backwards.
	err = s.Advance(session.PhaseAwaitResponse)
	require.ErrorIs(t, err, session.ErrInvalidTransition)
}

func TestAuthenticatedRekeyingIsTwoWay(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	require.NoError(t, s.Advance(session.PhaseAwaitResponse))
	require.NoError(t, s.Advance(session.PhaseAuthenticated))
	require.NoError(t, s.BeginRekey())
	require.Equal(t, session.PhaseRekeying, s.Phase())
	require.NoError(t, s.CompleteRekey([]byte("0123456789012345678901234567890a")))
	require.Equal(t, session.PhaseAuthenticated, s.Phase())
}

func TestFailedAndClosedAreTerminal(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	s.Fail(assertErr)
	require.Equal(t, session.PhaseFailed, s.Phase())
	require.ErrorIs(t, s.FailCause(), assertErr)
	require.ErrorIs(t, s.Advance(session.PhaseAuthenticated), session.ErrInvalidTransition)

	s2, err := session.NewInitiatorState()
	require.NoError(t, err)
	s2.Close()
	require.Equal(t, session.PhaseClosed, s2.Phase())
	require.ErrorIs(t, s2.Advance(session.PhaseAuthenticated), session.ErrInvalidTransition)
}

var assertErr = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }

func TestBumpSendSeqStrictlyIncreasing(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	n1, err := s.BumpSendSeq()
	require.NoError(t, err)
	n2, err := s.BumpSendSeq()
	require.NoError(t, err)
	require.Equal(t, uint32(1), n1)
	require.Equal(t, uint32(2), n2)
}

func TestAcceptRecvSeqRejectsReplayAndRegression(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	require.NoError(t, s.AcceptRecvSeq(1))
	require.NoError(t, s.AcceptRecvSeq(2))
	require.ErrorIs(t, s.AcceptRecvSeq(2), session.ErrReplay)
	require.ErrorIs(t, s.AcceptRecvSeq(1), session.ErrReplay)
	require.NoError(t, s.AcceptRecvSeq(3))
}

func TestCompleteRekeyResetsSequenceCounters(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	require.NoError(t, s.Advance(session.PhaseAwaitResponse))
	require.NoError(t, s.Advance(session.PhaseAuthenticated))
	_, _ = s.BumpSendSeq()
	_, _ = s.BumpSendSeq()
	require.NoError(t, s.AcceptRecvSeq(1))

	require.NoError(t, s.BeginRekey())
	require.NoError(t, s.CompleteRekey(make([]byte, 32)))

	require.Equal(t, uint32(1), s.Epoch())
	require.Equal(t, uint32(0), s.SendSeq())
	require.Equal(t, uint32(0), s.RecvSeq())

	// The receive counter restarts with the new epoch, so sequence number 1
	// is accepted again.
	require.NoError(t, s.AcceptRecvSeq(1))
}

func TestSetTrafficKeyZeroesPrevious(t *testing.T) {
	s, err := session.NewInitiatorState()
	require.NoError(t, err)
	s.SetTrafficKey([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	previous := s.TrafficKey() // aliases the session's internal copy
	s.SetTrafficKey([]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	for _, b := range previous {
		require.Equal(t, byte(0), b)
	}
}

func TestRegistryRejectsDuplicateSessionID(t *testing.T) {
	r := session.NewRegistry()
	var id [16]byte
	id[0] = 7
	require.NoError(t, r.Register(id))
	require.ErrorIs(t, r.Register(id), session.ErrDuplicateSession)
	r.Remove(id)
	require.NoError(t, r.Register(id))
}
