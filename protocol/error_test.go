package protocol_test

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bramblewire/securelink/protocol"
)

func TestFatalIsTrueForEveryKindExceptClosed(t *testing.T) {
	fatal := []protocol.ErrorKind{
		protocol.KindTransport,
		protocol.KindMalformed,
		protocol.KindProtocol,
		protocol.KindAuthFailure,
		protocol.KindReplay,
		protocol.KindTimeout,
		protocol.KindDuplicateSession,
	}
	for _, k := range fatal {
		err := protocol.New(k, "boom")
		require.True(t, err.Fatal(), "%s should be fatal", k)
	}
	require.False(t, protocol.New(protocol.KindClosed, "peer closed").Fatal())
}

func TestWrapRecvClassifiesDeadlineExceededAsTimeout(t *testing.T) {
	err := protocol.WrapRecv("read header", os.ErrDeadlineExceeded)
	require.Equal(t, protocol.KindTimeout, err.Kind)
	require.True(t, errors.Is(err, os.ErrDeadlineExceeded))
}

func TestWrapRecvClassifiesShortReadAsTransport(t *testing.T) {
	for _, cause := range []error{io.EOF, io.ErrUnexpectedEOF, errors.New("connection reset")} {
		err := protocol.WrapRecv("read payload", cause)
		require.Equal(t, protocol.KindTransport, err.Kind, "cause %v should classify as Transport", cause)
	}
}
