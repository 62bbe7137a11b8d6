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

// Package tcp is the primary transport.Conn implementation: a thin wrapper
// over net.Conn that gives the protocol core reliable ordered bytes, per
// spec.md §1 ("a conforming implementation of this core can be paired
// with any transport that offers reliable ordered bytes").
package tcp

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bramblewire/securelink/transport"
)

// Conn adapts a net.Conn (TCP or anything else implementing it, e.g. a
// tls.Conn) to transport.Conn.
type Conn struct {
	nc net.Conn
}

// New wraps an already-established net.Conn.
func New(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Dial connects to addr and wraps the resulting TCP connection.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial %s: %w", addr, err)
	}
	return New(nc), nil
}

// Listener wraps a net.Listener to hand out transport.Conn values.
type Listener struct {
	nl net.Listener
}

// Listen opens a TCP listener on addr.
func Listen(addr string) (*Listener, error) {
	nl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: listen %s: %w", addr, err)
	}
	return &Listener{nl: nl}, nil
}

// Accept blocks for the next inbound connection.
func (l *Listener) Accept() (*Conn, error) {
	nc, err := l.nl.Accept()
	if err != nil {
		return nil, fmt.Errorf("tcp: accept: %w", err)
	}
	return New(nc), nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.nl.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.nl.Close() }

// SendAll implements transport.Conn.
func (c *Conn) SendAll(b []byte) error {
	_, err := c.nc.Write(b)
	if err != nil {
		return fmt.Errorf("tcp: write: %w", err)
	}
	return nil
}

// RecvExact implements transport.Conn.
func (c *Conn) RecvExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.nc, buf); err != nil {
		return nil, fmt.Errorf("tcp: read: %w", err)
	}
	return buf, nil
}

// SetDeadline implements transport.Conn.
func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.nc.SetDeadline(t); err != nil {
		return fmt.Errorf("tcp: set deadline: %w", err)
	}
	return nil
}

// Close implements transport.Conn.
func (c *Conn) Close() error { return c.nc.Close() }

var _ transport.Conn = (*Conn)(nil)
