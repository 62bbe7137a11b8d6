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

package identity

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownPeer is returned by Directory.Lookup when no entry is pinned
// for the requested name.
var ErrUnknownPeer = errors.New("identity: unknown peer")

// Entry is one pinned peer: a name (matched against the handshake's
// identity claim) and its long-term public key material.
type Entry struct {
	Name      string
	KeyType   KeyType
	PublicKey []byte
	UpdatedAt time.Time
}

// Directory is a flat, operator-curated trust list: name to pinned public
// key. There is no certificate chain and no resolver behind it, by design
// (a certificate-based PKI is explicitly out of scope for this protocol).
type Directory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	loadedAt time.Time
}

// NewDirectory returns an empty directory. Use Pin or LoadManifest to
// populate it.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]Entry)}
}

// Pin adds or replaces a single trusted entry.
func (d *Directory) Pin(name string, keyType KeyType, publicKey []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[name] = Entry{Name: name, KeyType: keyType, PublicKey: append([]byte{}, publicKey...), UpdatedAt: time.Now()}
	d.loadedAt = time.Now()
}

// Unpin removes a trusted entry, e.g. after an operator revokes a peer.
func (d *Directory) Unpin(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, name)
}

// Lookup returns the pinned entry for name, or ErrUnknownPeer.
func (d *Directory) Lookup(name string) (Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[name]
	if !ok {
		return Entry{}, ErrUnknownPeer
	}
	return e, nil
}

// Len reports how many peers are currently pinned.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Age reports how long it has been since the directory was last populated
// via Pin or LoadManifest, or zero if it never has been.
func (d *Directory) Age() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.loadedAt.IsZero() {
		return 0
	}
	return time.Since(d.loadedAt)
}
