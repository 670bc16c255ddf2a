package models

import (
	"fmt"
	"time"
)

// Provider tags the upstream system an account was read from.
type Provider string

const (
	ProviderDirectory  Provider = "directory"
	ProviderGloboplay  Provider = "globoplay"
	ProviderPremiere   Provider = "premiere"
	ProviderTelecine   Provider = "telecine"
	ProviderHBOMax     Provider = "hbomax"
	ProviderNotifier   Provider = "notifier"
	ProviderAtlassian  Provider = "atlassian"
	ProviderSubscriber Provider = "subscriber"
)

// ParseProvider validates a provider tag supplied by a caller.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	switch p {
	case ProviderDirectory, ProviderGloboplay, ProviderPremiere, ProviderTelecine,
		ProviderHBOMax, ProviderNotifier, ProviderAtlassian, ProviderSubscriber:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

func (p Provider) String() string { return string(p) }

// Status is the closed set every adapter maps its native vocabulary into.
type Status string

const (
	StatusActive    Status = "active"
	StatusCheckout  Status = "checkout"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
	StatusUnknown   Status = "unknown"
)

// Valid reports whether s is one of the closed enum values.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCheckout, StatusSuspended, StatusCanceled, StatusUnknown:
		return true
	}
	return false
}

// NotInformed replaces optional contact fields the upstream left null.
const NotInformed = "Não informado"

// Account is the normalized account every adapter produces. It is built fresh
// for each lookup and never persisted.
type Account struct {
	Provider      Provider `json:"provider"`
	DisplayName   string   `json:"display_name"`
	Document      string   `json:"document"`
	Phone         string   `json:"phone"`
	PhoneDigits   string   `json:"-"`
	Email         string   `json:"email"`
	ServiceName   string   `json:"service_name"`
	ServiceID     string   `json:"service_id"`
	Status        Status   `json:"status"`
	RawIdentifier string   `json:"raw_identifier"`

	ExternalID      string     `json:"external_id,omitempty"`
	Groups          []string   `json:"groups,omitempty"`
	AccountExpires  *time.Time `json:"account_expires,omitempty"`
	PasswordLastSet *time.Time `json:"password_last_set,omitempty"`
	DirectoryState  string     `json:"directory_state,omitempty"`
}

// ServiceLabel is the value recorded under the audit "sva" column.
func (a *Account) ServiceLabel() string {
	if a.ServiceName != "" {
		return a.ServiceName
	}
	return string(a.Provider)
}
