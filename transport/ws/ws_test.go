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

package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/bramblewire/securelink/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

func newPair(t *testing.T) (client *Conn, server *Conn, closeAll func()) {
	t.Helper()

	serverCh := make(chan *Conn, 1)
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverCh <- New(wsConn)
	}))

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	clientWS, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	client = New(clientWS)

	server = <-serverCh
	return client, server, func() {
		client.Close()
		server.Close()
		httpSrv.Close()
	}
}

func TestWSConn_ImplementsTransportConn(t *testing.T) {
	var _ transport.Conn = (*Conn)(nil)
}

func TestWSConn_SendRecvExactRoundTrip(t *testing.T) {
	client, server, closeAll := newPair(t)
	defer closeAll()

	payload := []byte("handshake-record-bytes-over-websocket")
	require.NoError(t, client.SendAll(payload))

	got, err := server.RecvExact(len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestWSConn_RecvExactSpansMultipleFrames(t *testing.T) {
	client, server, closeAll := newPair(t)
	defer closeAll()

	// Three separate websocket messages; RecvExact must buffer across frame
	// boundaries since a websocket message and a protocol frame are not the
	// same unit.
	require.NoError(t, client.SendAll([]byte("AAAA")))
	require.NoError(t, client.SendAll([]byte("BBBB")))
	require.NoError(t, client.SendAll([]byte("CCCC")))

	got, err := server.RecvExact(12)
	require.NoError(t, err)
	require.Equal(t, []byte("AAAABBBBCCCC"), got)
}

func TestWSConn_RecvExactLeavesRemainderBuffered(t *testing.T) {
	client, server, closeAll := newPair(t)
	defer closeAll()

	require.NoError(t, client.SendAll([]byte("0123456789")))

	first, err := server.RecvExact(4)
	require.NoError(t, err)
	require.Equal(t, []byte("0123"), first)

	second, err := server.RecvExact(6)
	require.NoError(t, err)
	require.Equal(t, []byte("456789"), second)
}

func TestWSConn_SetDeadlineArmsReadTimeout(t *testing.T) {
	client, server, closeAll := newPair(t)
	defer closeAll()
	_ = client

	require.NoError(t, server.SetDeadline(time.Now().Add(20*time.Millisecond)))
	_, err := server.RecvExact(1)
	require.Error(t, err)
}

func TestWSConn_CloseIsIdempotent(t *testing.T) {
	client, server, closeAll := newPair(t)
	defer closeAll()
	_ = server

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
}
