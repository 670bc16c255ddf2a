package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/providers"
	dErrors "opsconsole/pkg/domain-errors"
	"opsconsole/pkg/platform/httputil"
	"opsconsole/pkg/requestcontext"
)

// Dispatcher is the account lookup and action surface.
type Dispatcher interface {
	Lookup(ctx context.Context, provider models.Provider, raw string) models.LookupOutcome
	Execute(ctx context.Context, req models.ActionRequest) models.ActionOutcome
}

// ProviderLister lists the configured adapters.
type ProviderLister interface {
	All() []providers.Provider
}

// AuthTester checks a directory password without changing anything.
type AuthTester interface {
	TestAuthentication(ctx context.Context, id, password string) (bool, error)
}

type AccountsHandler struct {
	logger     *slog.Logger
	dispatcher Dispatcher
	registry   ProviderLister
	authTester AuthTester
}

// NewAccountsHandler builds the accounts handler. authTester may be nil when
// no directory is configured.
func NewAccountsHandler(dispatcher Dispatcher, registry ProviderLister, authTester AuthTester, logger *slog.Logger) *AccountsHandler {
	return &AccountsHandler{
		logger:     logger,
		dispatcher: dispatcher,
		registry:   registry,
		authTester: authTester,
	}
}

func (h *AccountsHandler) Register(r chi.Router) {
	r.Get("/providers", h.handleListProviders)
	r.Get("/providers/{provider}/accounts/{identifier}", h.handleLookup)
	r.Post("/providers/{provider}/accounts/{identifier}/actions", h.handleAction)
	if h.authTester != nil {
		r.Post("/providers/directory/accounts/{identifier}/authentication-test", h.handleAuthenticationTest)
	}
}

type providerResponse struct {
	Provider   models.Provider     `json:"provider"`
	Identifier identifier.Kind     `json:"identifier"`
	Actions    []models.ActionKind `json:"actions"`
	Healthy    *bool               `json:"healthy,omitempty"`
}

// handleListProviders lists adapters. With ?health=1 every upstream is probed
// concurrently; a probe failure marks that provider unhealthy, nothing more.
func (h *AccountsHandler) handleListProviders(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	resp := make([]providerResponse, len(all))
	for i, p := range all {
		caps := p.Capabilities()
		actions := caps.Actions
		if actions == nil {
			actions = []models.ActionKind{}
		}
		resp[i] = providerResponse{Provider: p.ID(), Identifier: caps.Identifier, Actions: actions}
	}

	if r.URL.Query().Get("health") == "1" {
		g, ctx := errgroup.WithContext(r.Context())
		for i, p := range all {
			g.Go(func() error {
				err := p.Health(ctx)
				healthy := err == nil
				resp[i].Healthy = &healthy
				if err != nil {
					h.logger.WarnContext(ctx, "provider health check failed", "provider", p.ID(), "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"providers": resp})
}

func (h *AccountsHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	provider, err := models.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown provider"))
		return
	}
	out := h.dispatcher.Lookup(r.Context(), provider, pathParam(r, "identifier"))
	httputil.WriteJSON(w, statusForFailure(out.Failure), out)
}

type actionRequest struct {
	Action string              `json:"action"`
	Params models.ActionParams `json:"params"`
}

func (h *AccountsHandler) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider, err := models.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown provider"))
		return
	}
	var body actionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.logger.WarnContext(ctx, "invalid action request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	kind, err := models.ParseActionKind(body.Action)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown action"))
		return
	}

	out := h.dispatcher.Execute(ctx, models.ActionRequest{
		Kind:       kind,
		Identifier: pathParam(r, "identifier"),
		Provider:   provider,
		ActorName:  requestcontext.Actor(ctx),
		Extra:      body.Params,
	})
	httputil.WriteJSON(w, statusForFailure(out.Failure), out)
}

type authenticationTestRequest struct {
	Password string `json:"password"`
}

func (h *AccountsHandler) handleAuthenticationTest(w http.ResponseWriter, r *http.Request) {
	var body authenticationTestRequest
	if err := decodeJSON(w, r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	id := identifier.ForKind(identifier.KindUsername, pathParam(r, "identifier"))
	if id == "" || body.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "identifier and password are required"))
		return
	}
	ok, err := h.authTester.TestAuthentication(r.Context(), id, body.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "authentication test failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		writeProviderError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": ok})
}
