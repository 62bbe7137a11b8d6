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

// Package record implements the post-handshake send/recv path and the
// in-band rekey subprotocol of spec.md §4.5, operating on an AUTHENTICATED
// session.State over a transport.Conn.
package record

import (
	"time"

	"github.com/bramblewire/securelink/internal/logger"
)

// DefaultIdleTimeout bounds each individual read, per spec.md §5.
const DefaultIdleTimeout = 30 * time.Second

// DefaultRekeyTimeout bounds the rekey subprotocol's round trip, per
// spec.md §4.5 step 4.
const DefaultRekeyTimeout = 5 * time.Second

// Options configures Send/Recv/Rotate. The zero value is usable: both
// timeouts fall back to their defaults and logging is disabled.
type Options struct {
	IdleTimeout  time.Duration
	RekeyTimeout time.Duration
	Logger       logger.Logger
}

func (o Options) idleTimeout() time.Duration {
	if o.IdleTimeout > 0 {
		return o.IdleTimeout
	}
	return DefaultIdleTimeout
}

func (o Options) rekeyTimeout() time.Duration {
	if o.RekeyTimeout > 0 {
		return o.RekeyTimeout
	}
	return DefaultRekeyTimeout
}

func logInfo(l logger.Logger, msg string, fields ...logger.Field) {
	if l != nil {
		l.Info(msg, fields...)
	}
}
