package providers

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks Provider

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
)

// Protocol defines the supported communication protocols for upstream providers
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
)

// Capabilities describes what a provider supports
type Capabilities struct {
	Protocol   Protocol
	Provider   models.Provider
	Identifier identifier.Kind     // How lookup input must be cleaned
	Actions    []models.ActionKind // Mutations the upstream exposes
	Version    string
}

// Supports reports whether kind is one of the provider's actions.
func (c Capabilities) Supports(kind models.ActionKind) bool {
	return slices.Contains(c.Actions, kind)
}

// Provider is the universal interface all upstream integrations implement.
type Provider interface {
	// ID returns the provider tag this adapter serves
	ID() models.Provider

	// Capabilities returns what this provider supports
	Capabilities() Capabilities

	// Lookup fetches and normalizes one account. Absence is reported as a
	// ProviderError with FailureNotFound.
	Lookup(ctx context.Context, identifier string) (*models.Account, error)

	// PerformAction executes a mutation against an already-resolved account.
	PerformAction(ctx context.Context, kind models.ActionKind, account *models.Account, params models.ActionParams) (*models.ActionResult, error)

	// Health checks if the provider is reachable
	Health(ctx context.Context) error
}

// Registry maps provider tags to adapters. It is built once at startup and
// read-only afterwards.
type Registry struct {
	providers map[models.Provider]Provider
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[models.Provider]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) error {
	id := p.ID()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Get retrieves a provider by tag
func (r *Registry) Get(id models.Provider) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// All returns all registered providers ordered by tag
func (r *Registry) All() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
