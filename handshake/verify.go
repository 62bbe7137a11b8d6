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

package handshake

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/bramblewire/securelink/identity"
)

// verifySem bounds the number of signature verifications running at once
// across every session this process handles. RSA-2048 verification is
// CPU-bound; spec.md §5 permits offloading it off a session's critical
// task as long as the FSM observes results in issue order, which holds
// here since each Accept/Open call verifies synchronously and only the
// semaphore slot is shared.
var verifySem = semaphore.NewWeighted(int64(4 * runtime.NumCPU()))

// verifyBounded acquires a worker slot before calling kp.Verify, so a
// listener fielding many simultaneous handshakes cannot spawn unbounded
// concurrent RSA verifications.
func verifyBounded(ctx context.Context, kp identity.KeyPair, transcript, signature []byte) error {
	if err := verifySem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire signature verify slot: %w", err)
	}
	defer verifySem.Release(1)
	return kp.Verify(transcript, signature)
}
