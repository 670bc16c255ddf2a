// Package subscriber reads the companion subscriber base, the system of
// record used to repair partner data.
package subscriber

import (
	"context"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/account/normalize"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/streaming"
	"opsconsole/internal/providers/upstream"
)

const (
	version     = "v1.0.0"
	serviceName = "Base de assinantes"
	healthPath  = "/health"
)

// Adapter is read-only: it exposes lookups and profiles, never mutations.
type Adapter struct {
	client *upstream.Client
}

func New(client *upstream.Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) ID() models.Provider {
	return models.ProviderSubscriber
}

func (a *Adapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol:   providers.ProtocolHTTP,
		Provider:   models.ProviderSubscriber,
		Identifier: identifier.KindDocument,
		Version:    version,
	}
}

type subscriberResponse struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    string  `json:"phone"`
	Document string  `json:"document"`
}

func (a *Adapter) fetch(ctx context.Context, document string) (*subscriberResponse, error) {
	if document == "" {
		return nil, providers.NewValidationError(models.ProviderSubscriber, "document is required")
	}
	var resp subscriberResponse
	if err := a.client.Get(ctx, "lookup", "/subscribers/"+upstream.PathEscape(document), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *Adapter) Lookup(ctx context.Context, document string) (*models.Account, error) {
	resp, err := a.fetch(ctx, document)
	if err != nil {
		return nil, err
	}
	return &models.Account{
		Provider:      models.ProviderSubscriber,
		DisplayName:   resp.Name,
		Document:      normalize.FormatDocument(resp.Document),
		Phone:         normalize.FormatPhone(resp.Phone),
		PhoneDigits:   normalize.Digits(resp.Phone),
		Email:         normalize.EmailOrSentinel(resp.Email, models.NotInformed),
		ServiceName:   serviceName,
		Status:        models.StatusActive,
		RawIdentifier: document,
	}, nil
}

// Profile implements streaming.ProfileSource.
func (a *Adapter) Profile(ctx context.Context, document string) (*streaming.Profile, error) {
	resp, err := a.fetch(ctx, document)
	if err != nil {
		return nil, err
	}
	email := ""
	if resp.Email != nil {
		email = *resp.Email
	}
	return &streaming.Profile{
		Name:     resp.Name,
		Email:    email,
		Phone:    resp.Phone,
		Document: resp.Document,
	}, nil
}

func (a *Adapter) PerformAction(ctx context.Context, kind models.ActionKind, account *models.Account, params models.ActionParams) (*models.ActionResult, error) {
	return nil, providers.NewProviderError(models.FailureValidation, models.ProviderSubscriber,
		"action "+string(kind)+" is not supported", providers.ErrUnsupportedAction)
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Health(ctx, healthPath)
}
