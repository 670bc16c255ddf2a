package audit

import (
	"context"
	"log/slog"
	"time"

	"opsconsole/internal/account/models"
)

const (
	defaultMirrorBuffer = 256
	flushTimeout        = 5 * time.Second
)

// Mirror writes synchronously to a primary store and copies every accepted
// entry to a secondary store in the background. Secondary failures are logged
// and dropped; reads always come from the primary.
type Mirror struct {
	primary   Store
	secondary Appender
	inbox     chan models.AuditLogEntry
	logger    *slog.Logger
}

// NewMirror builds a Mirror. Run must be started for the secondary to receive
// anything.
func NewMirror(primary Store, secondary Appender, buffer int, logger *slog.Logger) *Mirror {
	if buffer <= 0 {
		buffer = defaultMirrorBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		primary:   primary,
		secondary: secondary,
		inbox:     make(chan models.AuditLogEntry, buffer),
		logger:    logger,
	}
}

func (m *Mirror) Append(ctx context.Context, entry models.AuditLogEntry) error {
	if err := m.primary.Append(ctx, entry); err != nil {
		return err
	}
	select {
	case m.inbox <- entry:
	default:
		m.logger.WarnContext(ctx, "audit mirror buffer full, dropping entry",
			"target", entry.TargetIdentifier, "action", entry.ActionLabel)
	}
	return nil
}

func (m *Mirror) ListRecent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	return m.primary.ListRecent(ctx, limit)
}

// Run drains the buffer into the secondary store until ctx is done, then
// flushes whatever is already queued.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.flush()
			return nil
		case entry := <-m.inbox:
			m.forward(ctx, entry)
		}
	}
}

func (m *Mirror) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case entry := <-m.inbox:
			m.forward(ctx, entry)
		default:
			return
		}
	}
}

func (m *Mirror) forward(ctx context.Context, entry models.AuditLogEntry) {
	if err := m.secondary.Append(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "audit mirror write failed",
			"target", entry.TargetIdentifier, "action", entry.ActionLabel, "error", err)
	}
}
