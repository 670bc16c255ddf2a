package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/platform/middleware"
	"opsconsole/pkg/platform/httputil"
)

const defaultRequestTimeout = 30 * time.Second

// RouterDeps collects what the HTTP edge needs. Tracker may be nil when no
// tracker provider is configured. RequestTimeout bounds authenticated
// requests; zero means 30s.
type RouterDeps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Validator      middleware.JWTValidator
	Accounts       *AccountsHandler
	Tracker        *TrackerHandler
	Audit          *AuditHandler
	MetricsRoute   http.Handler
	RequestTimeout time.Duration
}

// NewRouter wires the operator-facing endpoints. Health and metrics stay
// outside authentication.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.LatencyMiddleware(d.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.MetricsRoute != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsRoute)
	}

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		if d.Accounts != nil {
			d.Accounts.Register(r)
		}
		if d.Tracker != nil {
			d.Tracker.Register(r)
		}
		if d.Audit != nil {
			d.Audit.Register(r)
		}
	})
	return r
}
