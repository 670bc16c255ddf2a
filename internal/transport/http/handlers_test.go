package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/platform/middleware"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/mocks"
	"opsconsole/internal/providers/tracker"
	"opsconsole/pkg/requestcontext"
)

const operatorToken = "operator-token"

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != operatorToken {
		return nil, errors.New("invalid token")
	}
	return &middleware.JWTClaims{Actor: "Maria Souza", Subject: "maria.souza"}, nil
}

type stubDispatcher struct {
	mu       sync.Mutex
	lookup   models.LookupOutcome
	execute  models.ActionOutcome
	lastRaw  string
	lastReq  models.ActionRequest
	lastIP   string
	executed int
}

func (d *stubDispatcher) Lookup(_ context.Context, _ models.Provider, raw string) models.LookupOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastRaw = raw
	return d.lookup
}

func (d *stubDispatcher) Execute(ctx context.Context, req models.ActionRequest) models.ActionOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed++
	d.lastReq = req
	d.lastIP = requestcontext.ClientIP(ctx)
	return d.execute
}

type stubAuthTester struct {
	ok  bool
	err error
	id  string
}

func (a *stubAuthTester) TestAuthentication(_ context.Context, id, _ string) (bool, error) {
	a.id = id
	return a.ok, a.err
}

type stubGroups struct {
	groups      []tracker.Group
	err         error
	createdBy   string
	deletedID   string
	licenseRows []tracker.LicenseUsage
}

func (g *stubGroups) List(context.Context) ([]tracker.Group, error) { return g.groups, g.err }
func (g *stubGroups) LicenseUsage(context.Context) ([]tracker.LicenseUsage, error) {
	return g.licenseRows, g.err
}
func (g *stubGroups) Create(_ context.Context, actor, name string) (*tracker.Group, error) {
	g.createdBy = actor
	if g.err != nil {
		return nil, g.err
	}
	return &tracker.Group{ID: "g-1", Name: name}, nil
}
func (g *stubGroups) Delete(_ context.Context, _ string, id string) error {
	g.deletedID = id
	return g.err
}

type stubAudit struct {
	entries []models.AuditLogEntry
	err     error
	limit   int
}

func (a *stubAudit) Recent(_ context.Context, limit int) ([]models.AuditLogEntry, error) {
	a.limit = limit
	return a.entries, a.err
}

// =============================================================================
// HTTP Edge Test Suite
// =============================================================================

type RouterSuite struct {
	suite.Suite
	dispatcher *stubDispatcher
	authTester *stubAuthTester
	groups     *stubGroups
	audit      *stubAudit
	router     http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().ID().Return(models.ProviderGloboplay).AnyTimes()
	p.EXPECT().Capabilities().Return(providers.Capabilities{
		Provider:   models.ProviderGloboplay,
		Identifier: identifier.KindDocument,
		Actions:    []models.ActionKind{models.ActionResendActivation},
	}).AnyTimes()
	p.EXPECT().Health(gomock.Any()).Return(errors.New("connection refused")).AnyTimes()
	registry := providers.NewRegistry()
	s.Require().NoError(registry.Register(p))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.dispatcher = &stubDispatcher{}
	s.authTester = &stubAuthTester{}
	s.groups = &stubGroups{}
	s.audit = &stubAudit{}
	s.router = NewRouter(RouterDeps{
		Logger:    logger,
		Validator: stubValidator{},
		Accounts:  NewAccountsHandler(s.dispatcher, registry, s.authTester, logger),
		Tracker:   NewTrackerHandler(s.groups, logger),
		Audit:     NewAuditHandler(s.audit, logger),
		MetricsRoute: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
}

func (s *RouterSuite) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.1.2.3:5555"
	if authed {
		req.Header.Set("Authorization", "Bearer "+operatorToken)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// =============================================================================
// Public endpoints
// =============================================================================

func (s *RouterSuite) TestHealthAndMetricsArePublic() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health", "", false).Code)
	w := s.do(http.MethodGet, "/metrics", "", false)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "# metrics")
}

func (s *RouterSuite) TestOperatorEndpointsRequireToken() {
	w := s.do(http.MethodGet, "/providers", "", false)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(w.Header().Get(middleware.RequestIDHeader))
}

// =============================================================================
// Accounts
// =============================================================================

func (s *RouterSuite) TestListProviders() {
	w := s.do(http.MethodGet, "/providers", "", true)
	s.Require().Equal(http.StatusOK, w.Code)
	list := s.decode(w)["providers"].([]any)
	s.Require().Len(list, 1)
	first := list[0].(map[string]any)
	s.Equal("globoplay", first["provider"])
	s.Equal("document", first["identifier"])
	s.NotContains(first, "healthy")

	w = s.do(http.MethodGet, "/providers?health=1", "", true)
	s.Require().Equal(http.StatusOK, w.Code)
	first = s.decode(w)["providers"].([]any)[0].(map[string]any)
	s.Equal(false, first["healthy"])
}

func (s *RouterSuite) TestLookupStatuses() {
	cases := []struct {
		name    string
		outcome models.LookupOutcome
		status  int
	}{
		{"found", models.LookupOutcome{Status: models.LookupFound, Account: &models.Account{DisplayName: "Ana"}}, http.StatusOK},
		{"not found", models.LookupOutcome{Status: models.LookupNotFound, Failure: models.FailureNotFound}, http.StatusNotFound},
		{"invalid", models.LookupOutcome{Status: models.LookupInvalid, Failure: models.FailureValidation}, http.StatusBadRequest},
		{"busy", models.LookupOutcome{Status: models.LookupFailed, Failure: models.FailureUpstreamTransient}, http.StatusServiceUnavailable},
		{"down", models.LookupOutcome{Status: models.LookupFailed, Failure: models.FailureUpstreamDown}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.dispatcher.lookup = tc.outcome
			w := s.do(http.MethodGet, "/providers/globoplay/accounts/123.456.789-00", "", true)
			s.Equal(tc.status, w.Code)
			s.Equal(string(tc.outcome.Status), s.decode(w)["status"])
		})
	}
	s.Equal("123.456.789-00", s.dispatcher.lastRaw)
}

func (s *RouterSuite) TestLookupUnknownProvider() {
	w := s.do(http.MethodGet, "/providers/netflix/accounts/1", "", true)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestActionCarriesOperatorAndIP() {
	s.dispatcher.execute = models.ActionOutcome{Status: models.OutcomeSucceeded, Message: "ok"}
	w := s.do(http.MethodPost, "/providers/globoplay/accounts/12345678900/actions", `{"action":"resend_activation"}`, true)

	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("succeeded", s.decode(w)["status"])
	s.Equal(models.ActionResendActivation, s.dispatcher.lastReq.Kind)
	s.Equal(models.ProviderGloboplay, s.dispatcher.lastReq.Provider)
	s.Equal("12345678900", s.dispatcher.lastReq.Identifier)
	s.Equal("Maria Souza", s.dispatcher.lastReq.ActorName)
	s.Equal("10.1.2.3", s.dispatcher.lastIP)
}

func (s *RouterSuite) TestIneligibleActionIsNotAnError() {
	s.dispatcher.execute = models.ActionOutcome{Status: models.OutcomeIneligible, Reason: models.ReasonAlreadyActive, Message: "x"}
	w := s.do(http.MethodPost, "/providers/globoplay/accounts/1/actions", `{"action":"resend_activation"}`, true)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("already_active", s.decode(w)["reason"])
}

func (s *RouterSuite) TestActionRejectsBadInput() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/providers/globoplay/accounts/1/actions", `{"action":"delete_everything"}`, true).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/providers/globoplay/accounts/1/actions", `not json`, true).Code)
	s.Equal(0, s.dispatcher.executed)
}

func (s *RouterSuite) TestAuthenticationTest() {
	s.authTester.ok = true
	w := s.do(http.MethodPost, "/providers/directory/accounts/%20jdoe%20/authentication-test", `{"password":"x"}`, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["authenticated"])
	s.Equal("jdoe", s.authTester.id)

	s.authTester.err = providers.NewProviderError(models.FailureUpstreamDown, models.ProviderDirectory, "down", nil)
	w = s.do(http.MethodPost, "/providers/directory/accounts/jdoe/authentication-test", `{"password":"x"}`, true)
	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal(providers.UserMessage(models.FailureUpstreamDown), s.decode(w)["error_description"])

	w = s.do(http.MethodPost, "/providers/directory/accounts/jdoe/authentication-test", `{"password":""}`, true)
	s.Equal(http.StatusBadRequest, w.Code)
}

// =============================================================================
// Tracker
// =============================================================================

func (s *RouterSuite) TestGroups() {
	s.groups.groups = []tracker.Group{{ID: "g-1", Name: "jira-users"}}
	w := s.do(http.MethodGet, "/tracker/groups", "", true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["groups"], 1)

	w = s.do(http.MethodPost, "/tracker/groups", `{"name":"  suporte  "}`, true)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal("suporte", s.decode(w)["name"])
	s.Equal("Maria Souza", s.groups.createdBy)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/tracker/groups", `{"name":" "}`, true).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/tracker/groups/g-1", "", true).Code)
	s.Equal("g-1", s.groups.deletedID)
}

func (s *RouterSuite) TestGroupFailureIsClassified() {
	s.groups.err = providers.NewProviderError(models.FailureNotFound, models.ProviderAtlassian, "missing", nil)
	w := s.do(http.MethodDelete, "/tracker/groups/g-9", "", true)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", s.decode(w)["error"])
}

func (s *RouterSuite) TestLicenseUsage() {
	s.groups.licenseRows = []tracker.LicenseUsage{{Product: "jira-software", Used: 8, Limit: 10}}
	w := s.do(http.MethodGet, "/tracker/license-usage", "", true)
	s.Require().Equal(http.StatusOK, w.Code)
	row := s.decode(w)["licenses"].([]any)[0].(map[string]any)
	s.Equal(float64(2), row["available"])
}

// =============================================================================
// Audit
// =============================================================================

func (s *RouterSuite) TestAuditList() {
	s.audit.entries = []models.AuditLogEntry{{ActorName: "Maria Souza", ActionLabel: "Reenviar link"}}
	w := s.do(http.MethodGet, "/audit?limit=10", "", true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(10, s.audit.limit)
	s.Len(s.decode(w)["entries"], 1)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/audit?limit=abc", "", true).Code)

	s.audit.err = errors.New("db down")
	w = s.do(http.MethodGet, "/audit", "", true)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.NotContains(w.Body.String(), "db down")
}
