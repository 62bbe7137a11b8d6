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

package record

import (
	"github.com/bramblewire/securelink/session"
	"github.com/bramblewire/securelink/transport"
	"github.com/bramblewire/securelink/wire"
)

// Close sends a CLOSE control frame and marks st closed locally. The peer's
// Recv call surfaces this as a protocol.Error with KindClosed the next time
// it reads, per spec.md §4.5's session-teardown note; Close itself does not
// wait for any acknowledgement.
func Close(conn transport.Conn, st *session.State) error {
	h := controlFrame(wire.MessageTypeClose)
	err := sendFrame(conn, h, nil)
	st.Close()
	return err
}
