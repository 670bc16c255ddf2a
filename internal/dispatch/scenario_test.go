package dispatch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/audit"
	"opsconsole/internal/audit/store/memory"
	"opsconsole/internal/dispatch"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/streaming"
	"opsconsole/internal/providers/upstream"
	"opsconsole/pkg/requestcontext"
)

func TestResendActivationEndToEnd(t *testing.T) {
	var resends atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /globoplay/product/12345678900", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[{"content_supplier_product_id":2,"name":"Globoplay Premium","status":"checkout"}]}`))
	})
	mux.HandleFunc("GET /globoplay/info/12345678900", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Ana Silva","email":null,"phone":"11999998888"}`))
	})
	mux.HandleFunc("POST /globoplay/resend-email/12345678900", func(w http.ResponseWriter, r *http.Request) {
		resends.Add(1)
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := upstream.New(upstream.Config{Provider: models.ProviderGloboplay, BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(streaming.New(streaming.Config{
		Provider: models.ProviderGloboplay,
		Family:   streaming.GloboplayFamily,
	}, client)))

	store := memory.New()
	svc, err := dispatch.New(registry, audit.NewRecorder(store))
	require.NoError(t, err)

	ctx := requestcontext.WithActor(context.Background(), "maria.souza")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.7", "")

	raw := "123.456.789-00"
	require.Equal(t, "12345678900", identifier.Normalize(raw))

	lookup := svc.Lookup(ctx, models.ProviderGloboplay, raw)
	require.Equal(t, models.LookupFound, lookup.Status)
	assert.Equal(t, models.StatusCheckout, lookup.Account.Status)
	assert.Equal(t, "Globoplay Premium", lookup.Account.ServiceName)
	assert.Equal(t, models.NotInformed, lookup.Account.Email)

	out := svc.Dispatch(ctx, models.ActionRequest{
		Kind:       models.ActionResendActivation,
		Identifier: raw,
		Provider:   models.ProviderGloboplay,
	}, lookup.Account)
	require.Equal(t, models.OutcomeSucceeded, out.Status, out.Message)
	assert.Equal(t, int32(1), resends.Load())

	rows := store.All()
	require.Len(t, rows, 1)
	assert.Equal(t, "Reenviar link", rows[0].ActionLabel)
	assert.Equal(t, "maria.souza", rows[0].ActorName)
	assert.Equal(t, "12345678900", rows[0].TargetIdentifier)
	assert.Equal(t, "10.0.0.7", rows[0].SourceIP)
}

func TestLookupConnectionFailureEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := upstream.New(upstream.Config{Provider: models.ProviderPremiere, BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(streaming.New(streaming.Config{Provider: models.ProviderPremiere}, client)))
	svc, err := dispatch.New(registry, audit.NewRecorder(memory.New()))
	require.NoError(t, err)

	out := svc.Lookup(context.Background(), models.ProviderPremiere, "12345678900")
	assert.Equal(t, models.LookupFailed, out.Status)
	assert.Equal(t, models.FailureUpstreamDown, out.Failure)
}
