// Package sqlite provides a SQLite-backed event journal implementation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/storyloom/storyloom/internal/platform/storage/sqlitemigrate"
	"github.com/storyloom/storyloom/internal/services/story/protocol"
	"github.com/storyloom/storyloom/internal/services/story/storage"
	"github.com/storyloom/storyloom/internal/services/story/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists room event logs in SQLite. Event payloads are stored as the
// same wire JSON the protocol codec produces.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite journal and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendEvent records one event at the given log position.
func (s *Store) AppendEvent(ctx context.Context, roomID string, seq int64, evt protocol.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	if seq < 1 {
		return fmt.Errorf("seq must be >= 1")
	}

	payload, err := protocol.EncodeEvent(evt)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO room_events (room_id, seq, payload, created_at) VALUES (?, ?, ?, ?)`,
		roomID,
		seq,
		payload,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns every journaled event for the room in log order.
func (s *Store) ListEvents(ctx context.Context, roomID string) ([]storage.StoredEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT room_id, seq, payload FROM room_events WHERE room_id = ? ORDER BY seq ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []storage.StoredEvent
	for rows.Next() {
		var stored storage.StoredEvent
		var payload string
		if err := rows.Scan(&stored.RoomID, &stored.Seq, &payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		evt, err := protocol.DecodeEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("decode event payload seq %d: %w", stored.Seq, err)
		}
		stored.Event = evt
		events = append(events, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
