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

package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store against an append-only "session_events"
// table: one row per lifecycle transition, never updated or deleted by
// this package. Unlike the teacher's SessionStore (which keeps one mutable
// row per live session), nothing here needs to represent current session
// state — that lives in session.State in memory; this table exists purely
// for incident response after the fact.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool against dsn and verifies it
// with a ping before returning, matching the teacher's NewStore
// fail-fast-on-connect shape.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create audit connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Schema is the DDL cmd/chand applies on startup when the audit table does
// not yet exist. It is intentionally not run automatically by NewPostgresStore
// so a deployment can manage migrations however it already does.
const Schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id           BIGSERIAL PRIMARY KEY,
	session_id   TEXT        NOT NULL,
	client_id    BIGINT      NOT NULL,
	kind         TEXT        NOT NULL,
	role         TEXT        NOT NULL,
	peer_name    TEXT        NOT NULL DEFAULT '',
	epoch        BIGINT      NOT NULL DEFAULT 0,
	detail       TEXT        NOT NULL DEFAULT '',
	occurred_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS session_events_session_id_idx ON session_events (session_id);
`

// EnsureSchema applies Schema, creating the session_events table if it does
// not already exist. cmd/chand calls this once at startup when audit
// logging is enabled.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Record inserts one append-only event row.
func (s *PostgresStore) Record(ctx context.Context, ev Event) error {
	const query = `
		INSERT INTO session_events (session_id, client_id, kind, role, peer_name, epoch, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		ev.SessionID, ev.ClientID, string(ev.Kind), ev.Role, ev.PeerName, ev.Epoch, ev.Detail, ev.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("record session event: %w", err)
	}
	return nil
}

// ListBySession returns the most recent limit events for sessionID, newest
// first.
func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	const query = `
		SELECT session_id, client_id, kind, role, peer_name, epoch, detail, occurred_at
		FROM session_events
		WHERE session_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var kind string
		if err := rows.Scan(&ev.SessionID, &ev.ClientID, &kind, &ev.Role, &ev.PeerName, &ev.Epoch, &ev.Detail, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		ev.Kind = EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}
	return events, nil
}

// Count returns the total number of audit events ever recorded.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM session_events`).Scan(&n)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("count session events: %w", err)
	}
	return n, nil
}

// Ping verifies the database connection is reachable; used by
// health.DatabaseHealthCheck.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool. Safe to call once; subsequent calls
// are no-ops by pgxpool's own contract.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
