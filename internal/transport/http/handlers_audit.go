package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/account/models"
	dErrors "opsconsole/pkg/domain-errors"
	"opsconsole/pkg/platform/httputil"
	"opsconsole/pkg/requestcontext"
)

// AuditReader returns the most recent audit rows.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
}

type AuditHandler struct {
	logger *slog.Logger
	reader AuditReader
}

func NewAuditHandler(reader AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{logger: logger, reader: reader}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit", h.handleRecent)
}

func (h *AuditHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := h.reader.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit log",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeServiceUnavailable, "audit log unavailable"))
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
