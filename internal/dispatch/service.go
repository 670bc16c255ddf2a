// Package dispatch owns the decision of whether an action is attempted. It
// resolves the adapter, enforces eligibility, invokes the upstream and drives
// the audit log.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/providers"
)

// FailedSuffix marks audit rows for actions the upstream rejected or failed.
const FailedSuffix = " (falhou)"

// Recorder writes audit rows. Its error is informational only.
type Recorder interface {
	Record(ctx context.Context, entry models.AuditLogEntry) error
}

// Service is the action dispatcher.
type Service struct {
	registry *providers.Registry
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(registry *providers.Registry, recorder Recorder, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("provider registry is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	s := &Service{registry: registry, recorder: recorder}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Lookup cleans raw for the provider and fetches a fresh account. It never
// returns an error value: every failure is a typed outcome with a message the
// UI can show.
func (s *Service) Lookup(ctx context.Context, provider models.Provider, raw string) models.LookupOutcome {
	out := s.lookup(ctx, provider, raw)
	s.metrics.IncLookup(string(provider), string(out.Status))
	return out
}

func (s *Service) lookup(ctx context.Context, provider models.Provider, raw string) models.LookupOutcome {
	p, ok := s.registry.Get(provider)
	if !ok {
		return models.LookupOutcome{Status: models.LookupInvalid, Failure: models.FailureValidation, Message: "Serviço desconhecido."}
	}
	id := identifier.ForKind(p.Capabilities().Identifier, raw)
	if id == "" {
		return models.LookupOutcome{Status: models.LookupInvalid, Failure: models.FailureValidation, Message: "Informe um identificador."}
	}

	account, err := p.Lookup(ctx, id)
	if err != nil {
		kind := providers.Classify(err)
		out := models.LookupOutcome{Failure: kind, Message: providers.UserMessage(kind)}
		switch kind {
		case models.FailureNotFound:
			out.Status = models.LookupNotFound
			s.logger.InfoContext(ctx, "account not found", "provider", provider, "identifier", id)
		case models.FailureValidation:
			out.Status = models.LookupInvalid
			s.logger.InfoContext(ctx, "lookup rejected", "provider", provider, "error", err)
		default:
			out.Status = models.LookupFailed
			s.logger.WarnContext(ctx, "lookup failed", "provider", provider, "failure", kind, "error", err)
		}
		return out
	}
	if account == nil {
		return models.LookupOutcome{Status: models.LookupNotFound, Failure: models.FailureNotFound, Message: providers.UserMessage(models.FailureNotFound)}
	}
	if !account.Status.Valid() {
		account.Status = models.StatusUnknown
	}
	if account.RawIdentifier == "" {
		account.RawIdentifier = id
	}
	return models.LookupOutcome{Status: models.LookupFound, Account: account}
}

// Dispatch validates req against the already-resolved account and, when
// eligible, performs it upstream. Rejections never reach the upstream and are
// never audited. Every adapter call that reached the upstream is audited,
// whether it succeeded or not.
func (s *Service) Dispatch(ctx context.Context, req models.ActionRequest, account *models.Account) models.ActionOutcome {
	out := s.dispatch(ctx, req, account)
	provider := req.Provider
	if provider == "" && account != nil {
		provider = account.Provider
	}
	s.metrics.IncAction(string(provider), string(req.Kind), string(out.Status))
	return out
}

func (s *Service) dispatch(ctx context.Context, req models.ActionRequest, account *models.Account) models.ActionOutcome {
	if account == nil {
		return failed(models.FailureValidation, "Consulte a conta antes de executar uma ação.")
	}
	if _, err := models.ParseActionKind(string(req.Kind)); err != nil {
		return failed(models.FailureValidation, "Ação desconhecida.")
	}
	providerID := req.Provider
	if providerID == "" {
		providerID = account.Provider
	}
	if account.Provider != "" && account.Provider != providerID {
		return failed(models.FailureValidation, "A conta não pertence a este serviço.")
	}
	p, ok := s.registry.Get(providerID)
	if !ok {
		return failed(models.FailureValidation, "Serviço desconhecido.")
	}
	caps := p.Capabilities()

	target := identifier.ForKind(caps.Identifier, req.Identifier)
	if target == "" {
		target = account.RawIdentifier
	}
	if target == "" {
		return failed(models.FailureValidation, "Informe um identificador.")
	}
	if account.RawIdentifier != "" && target != account.RawIdentifier {
		return failed(models.FailureValidation, "O identificador não corresponde à conta consultada.")
	}

	if !caps.Supports(req.Kind) {
		return outcomeFrom(ineligible(models.ReasonUnsupportedAction))
	}
	if v := checkEligibility(req.Kind, account.Status, req.Extra); !v.allowed() {
		s.logger.InfoContext(ctx, "action refused",
			"provider", providerID, "action", req.Kind, "status", account.Status, "reason", v.reason)
		return outcomeFrom(v)
	}

	result, err := p.PerformAction(ctx, req.Kind, account, req.Extra)
	if err != nil {
		kind := providers.Classify(err)
		if providers.ReachedUpstream(err) {
			s.audit(ctx, req, target, account, req.Kind.Label()+FailedSuffix)
		}
		s.logger.WarnContext(ctx, "action failed",
			"provider", providerID, "action", req.Kind, "failure", kind, "error", err)
		return failed(kind, providers.UserMessage(kind))
	}

	s.audit(ctx, req, target, account, req.Kind.Label())
	message := "Ação executada com sucesso."
	if result != nil && result.Message != "" {
		message = result.Message
	}
	return models.ActionOutcome{Status: models.OutcomeSucceeded, Message: message, Result: result}
}

// Execute re-reads the account and then dispatches, so the eligibility rules
// always see current upstream state.
func (s *Service) Execute(ctx context.Context, req models.ActionRequest) models.ActionOutcome {
	lookup := s.Lookup(ctx, req.Provider, req.Identifier)
	if lookup.Status != models.LookupFound {
		out := failed(lookup.Failure, lookup.Message)
		s.metrics.IncAction(string(req.Provider), string(req.Kind), string(out.Status))
		return out
	}
	return s.Dispatch(ctx, req, lookup.Account)
}

func (s *Service) audit(ctx context.Context, req models.ActionRequest, target string, account *models.Account, label string) {
	// The upstream has already acted, so the row must outlive the request.
	// The recorder logs and counts its own failures.
	_ = s.recorder.Record(context.WithoutCancel(ctx), models.AuditLogEntry{
		ActorName:        req.ActorName,
		TargetIdentifier: target,
		ServiceLabel:     account.ServiceLabel(),
		ActionLabel:      label,
	})
}

func failed(kind models.FailureKind, message string) models.ActionOutcome {
	return models.ActionOutcome{Status: models.OutcomeFailed, Failure: kind, Message: message}
}

func outcomeFrom(v verdict) models.ActionOutcome {
	return models.ActionOutcome{Status: v.status, Reason: v.reason, Failure: v.failure, Message: v.message}
}
