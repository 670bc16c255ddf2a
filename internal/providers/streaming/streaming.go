// Package streaming adapts the partner entitlement backends and the resend
// backend. One Adapter is configured per backend.
package streaming

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/account/normalize"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/upstream"
)

const (
	version    = "v1.0.0"
	healthPath = "/health"
)

// ResendChannel selects which resend endpoint a backend exposes.
type ResendChannel string

const (
	ResendEmail ResendChannel = "email"
	ResendSMS   ResendChannel = "sms"
)

// GloboplayFamily is the set of product ids that belong to the Globoplay family.
var GloboplayFamily = []int{1, 2, 6, 7, 25}

// Profile is the subscriber data a resync re-submits upstream.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
}

// ProfileSource returns the companion system of record's view of a subscriber.
type ProfileSource interface {
	Profile(ctx context.Context, document string) (*Profile, error)
}

// Config describes one backend.
type Config struct {
	Provider    models.Provider
	PathPrefix  string // defaults to the provider tag
	ServiceName string // used when the product carries no name
	Family      []int
	TieBreak    normalize.TieBreak
	Channel     ResendChannel
	Profiles    ProfileSource // enables Resync when set
}

// Adapter implements providers.Provider for a streaming backend.
type Adapter struct {
	cfg    Config
	family map[int]struct{}
	client *upstream.Client
}

func New(cfg Config, client *upstream.Client) *Adapter {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = string(cfg.Provider)
	}
	if cfg.Channel == "" {
		cfg.Channel = ResendEmail
	}
	if cfg.TieBreak == "" {
		cfg.TieBreak = normalize.TieBreakFirst
	}
	family := make(map[int]struct{}, len(cfg.Family))
	for _, id := range cfg.Family {
		family[id] = struct{}{}
	}
	return &Adapter{cfg: cfg, family: family, client: client}
}

func (a *Adapter) ID() models.Provider {
	return a.cfg.Provider
}

func (a *Adapter) Capabilities() providers.Capabilities {
	actions := []models.ActionKind{models.ActionResendActivation}
	if a.cfg.Profiles != nil {
		actions = append(actions, models.ActionResync)
	}
	return providers.Capabilities{
		Protocol:   providers.ProtocolHTTP,
		Provider:   a.cfg.Provider,
		Identifier: identifier.KindDocument,
		Actions:    actions,
		Version:    version,
	}
}

type productEntry struct {
	ProductID int    `json:"content_supplier_product_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

type productResponse struct {
	Products []productEntry `json:"products"`
}

type infoResponse struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    string  `json:"phone"`
	Document string  `json:"document"`
}

// Lookup calls the product endpoint and then the info endpoint, never in
// parallel. A subscriber without a product in the configured family is
// reported as not found.
func (a *Adapter) Lookup(ctx context.Context, id string) (*models.Account, error) {
	if id == "" {
		return nil, providers.NewValidationError(a.cfg.Provider, "document is required")
	}

	var products productResponse
	if err := a.client.Get(ctx, "product", a.path("product", id), &products); err != nil {
		return nil, err
	}
	candidates := make([]normalize.Entitlement, 0, len(products.Products))
	for _, p := range products.Products {
		candidates = append(candidates, normalize.Entitlement{
			ProductID: p.ProductID,
			Name:      p.Name,
			Status:    normalize.StreamingStatus(p.Status),
		})
	}
	selected, ok := normalize.SelectEntitlement(normalize.FilterFamily(candidates, a.family), a.cfg.TieBreak)
	if !ok {
		return nil, providers.NewProviderError(models.FailureNotFound, a.cfg.Provider, "no entitlement for subscriber", nil)
	}

	var info infoResponse
	if err := a.client.Get(ctx, "info", a.path("info", id), &info); err != nil && !providers.IsNotFound(err) {
		return nil, err
	}

	name := selected.Name
	if name == "" {
		name = a.cfg.ServiceName
	}
	document := info.Document
	if document == "" {
		document = id
	}
	return &models.Account{
		Provider:      a.cfg.Provider,
		DisplayName:   info.Name,
		Document:      normalize.FormatDocument(document),
		Phone:         normalize.FormatPhone(info.Phone),
		PhoneDigits:   normalize.Digits(info.Phone),
		Email:         normalize.EmailOrSentinel(info.Email, models.NotInformed),
		ServiceName:   name,
		ServiceID:     strconv.Itoa(selected.ProductID),
		Status:        selected.Status,
		RawIdentifier: id,
	}, nil
}

func (a *Adapter) PerformAction(ctx context.Context, kind models.ActionKind, account *models.Account, params models.ActionParams) (*models.ActionResult, error) {
	if account == nil || account.RawIdentifier == "" {
		return nil, providers.NewValidationError(a.cfg.Provider, "account identifier is required")
	}
	switch kind {
	case models.ActionResendActivation:
		return a.resend(ctx, account)
	case models.ActionResync:
		if a.cfg.Profiles != nil {
			return a.resync(ctx, account)
		}
	}
	return nil, providers.NewProviderError(models.FailureValidation, a.cfg.Provider,
		"action "+string(kind)+" is not supported", providers.ErrUnsupportedAction)
}

func (a *Adapter) resend(ctx context.Context, account *models.Account) (*models.ActionResult, error) {
	if a.cfg.Channel == ResendSMS {
		if account.PhoneDigits == "" {
			return nil, providers.NewValidationError(a.cfg.Provider, "account has no phone number for SMS resend")
		}
		if err := a.client.Do(ctx, "resend_sms", http.MethodPost, a.path("resend-sms", account.PhoneDigits), nil, nil); err != nil {
			return nil, err
		}
		return &models.ActionResult{Message: "Link de ativação reenviado por SMS.", Data: map[string]string{"channel": string(ResendSMS)}}, nil
	}
	if err := a.client.Do(ctx, "resend_email", http.MethodPost, a.path("resend-email", account.RawIdentifier), nil, nil); err != nil {
		return nil, err
	}
	return &models.ActionResult{Message: "Link de ativação reenviado por e-mail.", Data: map[string]string{"channel": string(ResendEmail)}}, nil
}

// resync re-derives the profile from the companion system and re-submits it.
// A companion failure means the partner was never called.
func (a *Adapter) resync(ctx context.Context, account *models.Account) (*models.ActionResult, error) {
	profile, err := a.cfg.Profiles.Profile(ctx, account.RawIdentifier)
	if err != nil {
		var pe *providers.ProviderError
		if errors.As(err, &pe) {
			local := *pe
			local.ProviderID = a.cfg.Provider
			local.Op = "resync_profile"
			local.Reached = false
			return nil, &local
		}
		return nil, providers.NewProviderError(providers.Classify(err), a.cfg.Provider, "load companion profile", err)
	}
	profile.Document = normalize.Digits(profile.Document)
	profile.Phone = normalize.Digits(profile.Phone)
	if profile.Document == "" {
		profile.Document = account.RawIdentifier
	}
	if err := a.client.Do(ctx, "fixit", http.MethodPost, a.path("fixit", account.RawIdentifier), profile, nil); err != nil {
		return nil, err
	}
	return &models.ActionResult{Message: "Dados do assinante ressincronizados."}, nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Health(ctx, healthPath)
}

func (a *Adapter) path(endpoint, id string) string {
	return "/" + a.cfg.PathPrefix + "/" + endpoint + "/" + upstream.PathEscape(id)
}
