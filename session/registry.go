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

package session

import (
	"errors"
	"sync"
)

// ErrDuplicateSession is returned by Registry.Register when a session id
// is already active, per spec.md §4.4's DUPLICATE_SESSION edge case.
var ErrDuplicateSession = errors.New("session: duplicate session id")

// Registry is the responder-side set of active session ids, shared across
// every session a listener accepts (spec.md §5: "a registry of active
// session-ids (guarded by a mutex; operations are O(1) hash-map
// insert/lookup/remove)"). It holds no other session state.
type Registry struct {
	mu  sync.Mutex
	ids map[[16]byte]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[[16]byte]struct{})}
}

// Register claims sessionID. It fails with ErrDuplicateSession if another
// session with the same id is already active.
func (r *Registry) Register(sessionID [16]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ids[sessionID]; exists {
		return ErrDuplicateSession
	}
	r.ids[sessionID] = struct{}{}
	return nil
}

// Remove frees sessionID once the session closes or fails.
func (r *Registry) Remove(sessionID [16]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, sessionID)
}

// Len reports how many sessions are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
