package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/providers/tracker"
	dErrors "opsconsole/pkg/domain-errors"
	"opsconsole/pkg/platform/httputil"
	"opsconsole/pkg/requestcontext"
)

// GroupService is the audited tracker group administration.
type GroupService interface {
	List(ctx context.Context) ([]tracker.Group, error)
	LicenseUsage(ctx context.Context) ([]tracker.LicenseUsage, error)
	Create(ctx context.Context, actor, name string) (*tracker.Group, error)
	Delete(ctx context.Context, actor, groupID string) error
}

type TrackerHandler struct {
	logger *slog.Logger
	groups GroupService
}

func NewTrackerHandler(groups GroupService, logger *slog.Logger) *TrackerHandler {
	return &TrackerHandler{logger: logger, groups: groups}
}

func (h *TrackerHandler) Register(r chi.Router) {
	r.Route("/tracker", func(r chi.Router) {
		r.Get("/groups", h.handleListGroups)
		r.Post("/groups", h.handleCreateGroup)
		r.Delete("/groups/{groupID}", h.handleDeleteGroup)
		r.Get("/license-usage", h.handleLicenseUsage)
	})
}

func (h *TrackerHandler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.fail(w, r, "list groups", err)
		return
	}
	if groups == nil {
		groups = []tracker.Group{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (h *TrackerHandler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var body createGroupRequest
	if err := decodeJSON(w, r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "group name is required"))
		return
	}
	ctx := r.Context()
	group, err := h.groups.Create(ctx, requestcontext.Actor(ctx), name)
	if err != nil {
		h.fail(w, r, "create group", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, group)
}

func (h *TrackerHandler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.groups.Delete(ctx, requestcontext.Actor(ctx), pathParam(r, "groupID")); err != nil {
		h.fail(w, r, "delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type licenseUsageResponse struct {
	Product   string `json:"product"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Available int    `json:"available"`
}

func (h *TrackerHandler) handleLicenseUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.groups.LicenseUsage(r.Context())
	if err != nil {
		h.fail(w, r, "license usage", err)
		return
	}
	resp := make([]licenseUsageResponse, 0, len(usage))
	for _, u := range usage {
		resp = append(resp, licenseUsageResponse{Product: u.Product, Used: u.Used, Limit: u.Limit, Available: u.Available()})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"licenses": resp})
}

func (h *TrackerHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), "tracker request failed",
		"op", op,
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err,
	)
	writeProviderError(w, err)
}
