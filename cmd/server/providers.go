package main

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"

	"opsconsole/internal/account/models"
	"opsconsole/internal/account/normalize"
	"opsconsole/internal/platform/config"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/directory"
	"opsconsole/internal/providers/streaming"
	"opsconsole/internal/providers/subscriber"
	"opsconsole/internal/providers/tracker"
	"opsconsole/internal/providers/upstream"
)

// wiredProviders is the registry plus the adapters that expose operations
// beyond the Provider interface.
type wiredProviders struct {
	registry  *providers.Registry
	directory *directory.Adapter
	tracker   *tracker.Adapter
}

type providerDeps struct {
	catalog *config.Catalog
	timeout time.Duration
	getenv  func(string) string
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// buildProviders turns the catalog into a read-only registry. The subscriber
// base is built first because streaming backends use it for resync.
func buildProviders(d providerDeps) (*wiredProviders, error) {
	tags := make([]string, 0, len(d.catalog.Providers))
	for tag := range d.catalog.Providers {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b string) int {
		return rank(d.catalog.Providers[a].Adapter) - rank(d.catalog.Providers[b].Adapter)
	})

	out := &wiredProviders{registry: providers.NewRegistry()}
	var profiles streaming.ProfileSource
	for _, tag := range tags {
		pc := d.catalog.Providers[tag]
		provider, err := models.ParseProvider(tag)
		if err != nil {
			return nil, err
		}
		client, err := newClient(d, provider, pc)
		if err != nil {
			return nil, err
		}

		var adapter providers.Provider
		switch pc.Adapter {
		case config.AdapterSubscriber:
			sub := subscriber.New(client)
			profiles = sub
			adapter = sub
		case config.AdapterDirectory:
			out.directory = directory.New(client)
			adapter = out.directory
		case config.AdapterTracker:
			out.tracker = tracker.New(client)
			adapter = out.tracker
		case config.AdapterStreaming:
			scfg := streaming.Config{
				Provider:    provider,
				PathPrefix:  pc.PathPrefix,
				ServiceName: pc.ServiceName,
				Family:      pc.ProductFamily,
				TieBreak:    normalize.ParseTieBreak(pc.TieBreak),
				Channel:     streaming.ResendChannel(pc.ResendChannel),
			}
			if pc.Resync {
				scfg.Profiles = profiles
			}
			adapter = streaming.New(scfg, client)
		default:
			return nil, fmt.Errorf("provider %s: unknown adapter %q", tag, pc.Adapter)
		}
		if err := out.registry.Register(adapter); err != nil {
			return nil, err
		}
		d.logger.Info("provider registered", "provider", tag, "adapter", pc.Adapter, "base_url", pc.BaseURL)
	}
	return out, nil
}

func newClient(d providerDeps, provider models.Provider, pc config.ProviderConfig) (*upstream.Client, error) {
	creds, err := pc.Auth.Resolve(d.getenv)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider, err)
	}
	return upstream.New(upstream.Config{
		Provider: provider,
		BaseURL:  pc.BaseURL,
		Timeout:  d.catalog.TimeoutFor(pc, d.timeout),
		Auth: upstream.Auth{
			Kind:     upstream.AuthKind(creds.Kind),
			Header:   creds.Header,
			APIKey:   creds.APIKey,
			Username: creds.Username,
			Password: creds.Password,
			Token:    creds.Token,
		},
		BusyMarkers: d.catalog.BusyMarkersFor(pc),
	}, upstream.WithMetrics(d.metrics), upstream.WithTracer(d.tracer))
}

func rank(kind config.AdapterKind) int {
	if kind == config.AdapterSubscriber {
		return 0
	}
	return 1
}
