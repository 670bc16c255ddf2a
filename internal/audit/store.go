// Package audit records one durable row per mutating action. Writes are
// best-effort from the caller's point of view: a failed write is reported on
// the operational log and never fails the action that produced it.
package audit

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks Store

import (
	"context"

	"opsconsole/internal/account/models"
)

// Appender accepts audit rows. Write-only sinks such as a message stream
// implement just this.
type Appender interface {
	Append(ctx context.Context, entry models.AuditLogEntry) error
}

// Store persists audit rows. Implementations are append-only.
type Store interface {
	Appender
	// ListRecent returns at most limit rows, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
}
