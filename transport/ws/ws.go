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

// Package ws adapts a gorilla/websocket connection to transport.Conn,
// demonstrating the core is transport-agnostic (spec.md §1). Binary
// websocket frames carry raw protocol bytes; RecvExact buffers across
// frame boundaries since a websocket message and a protocol frame are not
// the same unit.
package ws

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bramblewire/securelink/transport"
)

// Conn adapts a *websocket.Conn to transport.Conn.
type Conn struct {
	ws  *websocket.Conn
	buf bytes.Buffer

	closeOnce sync.Once
	closeErr  error
}

// New wraps an already-established websocket connection (from
// websocket.Upgrader.Upgrade on the server side, or websocket.Dialer.Dial on the
// client side).
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// SendAll implements transport.Conn by writing b as one binary message.
func (c *Conn) SendAll(b []byte) error {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("ws: write: %w", err)
	}
	return nil
}

// RecvExact implements transport.Conn, pulling additional websocket
// messages into an internal buffer until n bytes are available.
func (c *Conn) RecvExact(n int) ([]byte, error) {
	for c.buf.Len() < n {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("ws: read: %w", err)
		}
		c.buf.Write(data)
	}
	out := make([]byte, n)
	if _, err := c.buf.Read(out); err != nil {
		return nil, fmt.Errorf("ws: drain buffer: %w", err)
	}
	return out, nil
}

// SetDeadline implements transport.Conn by arming both the read and write
// deadlines.
func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return fmt.Errorf("ws: set read deadline: %w", err)
	}
	if err := c.ws.SetWriteDeadline(t); err != nil {
		return fmt.Errorf("ws: set write deadline: %w", err)
	}
	return nil
}

// Close implements transport.Conn. Only the first call closes the
// websocket; later calls return that first call's result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.ws.Close() })
	return c.closeErr
}

var _ transport.Conn = (*Conn)(nil)
