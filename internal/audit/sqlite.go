package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/chemassist/backend/pkg/logger"
)

// SQLiteLogger persists audit events to a local SQLite database.
type SQLiteLogger struct {
	db *sql.DB
}

func NewSQLiteLogger(dbPath string) (*SQLiteLogger, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("Audit store initialized", zap.String("path", dbPath))

	return &SQLiteLogger{db: db}, nil
}

func (s *SQLiteLogger) Close() error {
	return s.db.Close()
}

func (s *SQLiteLogger) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		action TEXT NOT NULL,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_events(action);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

func (s *SQLiteLogger) LogEvent(ctx context.Context, action string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO audit_events (id, timestamp, action, details) VALUES (?, ?, ?, ?)",
		uuid.New().String(), time.Now().UTC().UnixMilli(), action, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

// Events returns stored events newest first.
func (s *SQLiteLogger) Events(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, action, details FROM audit_events ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev      Event
			ts      int64
			details sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Action, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Timestamp = time.UnixMilli(ts).UTC()
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &ev.Details); err != nil {
				logger.Warn("Malformed audit details", zap.String("id", ev.ID), zap.Error(err))
			}
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

func (s *SQLiteLogger) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM audit_events"); err != nil {
		return fmt.Errorf("failed to clear audit events: %w", err)
	}
	return nil
}
