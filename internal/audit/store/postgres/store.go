// Package postgres persists audit rows in the relational log table.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"opsconsole/internal/account/models"
	"opsconsole/pkg/platform/sentinel"
)

// Store implements audit.Store on the log table: "user" holds the operator,
// client the target identifier, sva the service label, request the action
// label and ip the operator's address.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertEntry = `
	INSERT INTO log ("user", client, sva, request, ip, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// Append inserts one row. Connection-level failures wrap sentinel.ErrUnavailable.
func (s *Store) Append(ctx context.Context, entry models.AuditLogEntry) error {
	_, err := s.db.ExecContext(ctx, insertEntry,
		entry.ActorName,
		entry.TargetIdentifier,
		entry.ServiceLabel,
		entry.ActionLabel,
		entry.SourceIP,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", classify(err))
	}
	return nil
}

const selectRecent = `
	SELECT "user", client, sva, request, ip, created_at
	FROM log
	ORDER BY created_at DESC, id DESC
	LIMIT $1
`

// ListRecent returns the newest rows first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", classify(err))
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ActorName, &e.TargetIdentifier, &e.ServiceLabel, &e.ActionLabel, &e.SourceIP, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping audit database: %w", classify(err))
	}
	return nil
}

// classify tags errors that mean the database could not be reached.
// SQLSTATE class 08 is connection exception, 57 is operator intervention
// (shutdown, admin disconnect), 53 is insufficient resources.
func classify(err error) error {
	if errors.Is(err, driver.ErrBadConn) {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return errors.Join(sentinel.ErrUnavailable, err)
		}
	}
	return err
}
