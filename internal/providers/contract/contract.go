// Package contract holds reusable checks every provider adapter must pass.
package contract

import (
	"context"
	"errors"
	"testing"

	"opsconsole/internal/account/models"
	"opsconsole/internal/providers"
)

// LookupTest checks the invariants of a successful lookup.
type LookupTest struct {
	Name         string
	Provider     providers.Provider
	Identifier   string
	ValidateFunc func(t *testing.T, account *models.Account)
}

// LookupSuite is a collection of lookup contract tests for one provider.
type LookupSuite struct {
	ProviderID models.Provider
	Tests      []LookupTest
}

// Run executes all lookup contract tests in the suite.
func (s *LookupSuite) Run(t *testing.T) {
	t.Helper()
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			account, err := test.Provider.Lookup(context.Background(), test.Identifier)
			if err != nil {
				t.Fatalf("provider lookup failed: %v", err)
			}
			if account == nil {
				t.Fatal("lookup returned nil account without error")
			}
			if account.Provider != s.ProviderID {
				t.Errorf("expected provider %s, got %s", s.ProviderID, account.Provider)
			}
			if !account.Status.Valid() {
				t.Errorf("status %q is outside the closed set", account.Status)
			}
			if account.RawIdentifier == "" {
				t.Error("RawIdentifier not set")
			}
			if test.ValidateFunc != nil {
				test.ValidateFunc(t, account)
			}
		})
	}
}

// CapabilityTest validates that provider capabilities are correctly declared.
type CapabilityTest struct {
	Provider providers.Provider
}

// Run executes a capability test.
func (ct *CapabilityTest) Run(t *testing.T) {
	t.Helper()
	caps := ct.Provider.Capabilities()

	if caps.Protocol == "" {
		t.Error("protocol not set")
	}
	if caps.Provider != ct.Provider.ID() {
		t.Errorf("capabilities report provider %s, adapter reports %s", caps.Provider, ct.Provider.ID())
	}
	if caps.Identifier == "" {
		t.Error("identifier kind not set")
	}
	if caps.Version == "" {
		t.Error("version not set")
	}
	for _, kind := range caps.Actions {
		if _, err := models.ParseActionKind(string(kind)); err != nil {
			t.Errorf("declared action %q is not a known kind", kind)
		}
	}
}

// ErrorTest validates that a failing lookup follows the failure taxonomy.
type ErrorTest struct {
	Name          string
	Provider      providers.Provider
	Identifier    string
	ExpectedKind  models.FailureKind
	ExpectedRetry bool
}

// Run executes an error contract test.
func (et *ErrorTest) Run(t *testing.T) {
	t.Helper()
	t.Run(et.Name, func(t *testing.T) {
		_, err := et.Provider.Lookup(context.Background(), et.Identifier)
		if err == nil {
			t.Fatal("expected error but got none")
		}
		var pe *providers.ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *providers.ProviderError, got %T", err)
		}
		if pe.Kind != et.ExpectedKind {
			t.Errorf("expected kind %s, got %s", et.ExpectedKind, pe.Kind)
		}
		if pe.Retryable != et.ExpectedRetry {
			t.Errorf("expected retryable=%v, got %v", et.ExpectedRetry, pe.Retryable)
		}
	})
}
