package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"opsconsole/internal/account/models"
	"opsconsole/internal/platform/metrics"
	"opsconsole/pkg/requestcontext"
)

// ErrWriteFailed marks a LogWriteFailure. The triggering action has already
// happened upstream and is not rolled back.
var ErrWriteFailed = errors.New("audit log write failed")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Recorder is the only writer of the audit log.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry. Missing actor, source IP and timestamp are taken
// from the request context. The returned error wraps ErrWriteFailed and is
// informational only.
func (r *Recorder) Record(ctx context.Context, entry models.AuditLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.ActorName == "" {
		entry.ActorName = requestcontext.Actor(ctx)
	}
	if entry.SourceIP == "" {
		entry.SourceIP = requestcontext.ClientIP(ctx)
	}

	err := r.store.Append(ctx, entry)
	args := []any{
		"actor", entry.ActorName,
		"target", entry.TargetIdentifier,
		"service", entry.ServiceLabel,
		"action", entry.ActionLabel,
		"log_type", "audit",
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if err != nil {
		r.metrics.IncAuditWriteFailure()
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit write failed", append(args, "error", err)...)
		}
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	r.metrics.IncAuditWrite()
	if r.logger != nil {
		r.logger.InfoContext(ctx, "audit recorded", args...)
	}
	return nil
}

// Recent returns the newest rows. Non-positive limits use the default and
// large ones are capped.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return r.store.ListRecent(ctx, limit)
}
