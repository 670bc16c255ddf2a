package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/account/models"
	"opsconsole/internal/account/normalize"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/contract"
	"opsconsole/internal/providers/upstream"
)

const userJSON = `{
	"sAMAccountName": "ana.silva",
	"distinguishedName": "CN=Ana Silva,OU=Users,DC=corp,DC=local",
	"displayName": "Ana Silva",
	"mail": null,
	"mobile": "11999998888",
	"employeeID": "12345678900",
	"userAccountControl": 514,
	"accountExpires": "9223372036854775807",
	"pwdLastSet": "133497504000000000",
	"memberOf": ["CN=Suporte N1,OU=Groups,DC=corp,DC=local", "CN=VPN\\, Remote,OU=Groups,DC=corp,DC=local"]
}`

func newAdapter(t *testing.T, mux *http.ServeMux) *Adapter {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client, err := upstream.New(upstream.Config{
		Provider: models.ProviderDirectory,
		BaseURL:  srv.URL,
		Timeout:  time.Second,
		Auth:     upstream.Auth{Kind: upstream.AuthAPIKey, APIKey: "k"},
	})
	require.NoError(t, err)
	return New(client)
}

func TestCapabilities(t *testing.T) {
	a := newAdapter(t, http.NewServeMux())
	(&contract.CapabilityTest{Provider: a}).Run(t)
	assert.True(t, a.Capabilities().Supports(models.ActionResetPassword))
	assert.True(t, a.Capabilities().Supports(models.ActionSuspend))
	assert.False(t, a.Capabilities().Supports(models.ActionResendActivation))
}

func TestLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ad/user/ana.silva", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(userJSON))
	})
	a := newAdapter(t, mux)

	suite := &contract.LookupSuite{
		ProviderID: models.ProviderDirectory,
		Tests: []contract.LookupTest{{
			Name:       "maps directory attributes",
			Provider:   a,
			Identifier: "ana.silva",
			ValidateFunc: func(t *testing.T, acc *models.Account) {
				assert.Equal(t, "Ana Silva", acc.DisplayName)
				assert.Equal(t, "123.456.789-00", acc.Document)
				assert.Equal(t, "+55 (11) 99999-8888", acc.Phone)
				assert.Equal(t, "5511999998888", normalize.Digits(acc.Phone))
				assert.Equal(t, models.NotInformed, acc.Email)
				assert.Equal(t, models.StatusSuspended, acc.Status)
				assert.Equal(t, normalize.DirectoryDisabled, acc.DirectoryState)
				assert.Nil(t, acc.AccountExpires)
				require.NotNil(t, acc.PasswordLastSet)
				assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *acc.PasswordLastSet)
				assert.Equal(t, []string{"Suporte N1", "VPN, Remote"}, acc.Groups)
				assert.Equal(t, "CN=Ana Silva,OU=Users,DC=corp,DC=local", acc.ExternalID)
			},
		}},
	}
	suite.Run(t)
}

func TestLookupUnknownControlValue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ad/user/bob", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sAMAccountName":"bob","userAccountControl":"n/a"}`))
	})
	a := newAdapter(t, mux)

	acc, err := a.Lookup(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, acc.Status)
	assert.Equal(t, normalize.DirectoryUnknown, acc.DirectoryState)
}

func TestLookupFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ad/user/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /ad/user/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	a := newAdapter(t, mux)

	(&contract.ErrorTest{Name: "not found", Provider: a, Identifier: "missing", ExpectedKind: models.FailureNotFound}).Run(t)
	(&contract.ErrorTest{Name: "server error", Provider: a, Identifier: "broken", ExpectedKind: models.FailureUpstreamDown, ExpectedRetry: true}).Run(t)
	(&contract.ErrorTest{Name: "empty identifier", Provider: a, Identifier: "", ExpectedKind: models.FailureValidation}).Run(t)
}

func TestResetPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /ad/user/ana.silva/reset-password", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"password":"Tmp#1234"}`))
	})
	mux.HandleFunc("PUT /ad/user/ana.silva/reset-and-test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"password":"Tmp#5678","authenticated":false}`))
	})
	a := newAdapter(t, mux)
	acc := &models.Account{Provider: models.ProviderDirectory, RawIdentifier: "ana.silva"}

	res, err := a.PerformAction(context.Background(), models.ActionResetPassword, acc, models.ActionParams{})
	require.NoError(t, err)
	assert.Equal(t, "Tmp#1234", res.Data["temporary_password"])
	assert.NotContains(t, res.Data, "authenticated")

	res, err = a.PerformAction(context.Background(), models.ActionResetPassword, acc, models.ActionParams{Verify: true})
	require.NoError(t, err)
	assert.Equal(t, "Tmp#5678", res.Data["temporary_password"])
	assert.Equal(t, "false", res.Data["authenticated"])
	assert.Contains(t, res.Message, "falhou")
}

func TestSuspend(t *testing.T) {
	var called atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /ad/user/ana.silva/disable", func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	a := newAdapter(t, mux)

	_, err := a.PerformAction(context.Background(), models.ActionSuspend,
		&models.Account{RawIdentifier: "ana.silva"}, models.ActionParams{})
	require.NoError(t, err)
	assert.True(t, called.Load())
}

func TestUnsupportedActionNeverReachesUpstream(t *testing.T) {
	a := newAdapter(t, http.NewServeMux())
	_, err := a.PerformAction(context.Background(), models.ActionResendActivation,
		&models.Account{RawIdentifier: "ana.silva"}, models.ActionParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrUnsupportedAction)
	assert.False(t, providers.ReachedUpstream(err))
}

func TestTestAuthentication(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ad/user/ana.silva/test-authentication", func(w http.ResponseWriter, r *http.Request) {
		var body authRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(authResponse{Authenticated: body.Password == "right"})
	})
	a := newAdapter(t, mux)

	ok, err := a.TestAuthentication(context.Background(), "ana.silva", "right")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.TestAuthentication(context.Background(), "ana.silva", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.TestAuthentication(context.Background(), "ana.silva", "")
	assert.Equal(t, models.FailureValidation, providers.Classify(err))
}
