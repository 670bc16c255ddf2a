// Package tracker adapts the issue-tracker / identity platform.
package tracker

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/upstream"
)

const (
	version     = "v1.0.0"
	serviceName = "Atlassian"
	healthPath  = "/health"
)

// Group is a tracker group as shown to operators.
type Group struct {
	ID   string `json:"groupId"`
	Name string `json:"name"`
}

// LicenseUsage is the seat consumption of one tracker product.
type LicenseUsage struct {
	Product string `json:"product"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
}

// Available returns the seats left, never negative.
func (u LicenseUsage) Available() int {
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// Adapter implements providers.Provider and the group administration surface.
type Adapter struct {
	client *upstream.Client
}

func New(client *upstream.Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) ID() models.Provider {
	return models.ProviderAtlassian
}

func (a *Adapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol:   providers.ProtocolHTTP,
		Provider:   models.ProviderAtlassian,
		Identifier: identifier.KindEmail,
		Actions: []models.ActionKind{
			models.ActionAssignToGroup,
			models.ActionRemoveFromGroup,
			models.ActionSuspend,
			models.ActionReactivate,
		},
		Version: version,
	}
}

type userEntry struct {
	AccountID    string  `json:"accountId"`
	DisplayName  string  `json:"displayName"`
	EmailAddress *string `json:"emailAddress"`
	Active       bool    `json:"active"`
}

// Lookup finds the user whose email matches exactly and loads its groups.
func (a *Adapter) Lookup(ctx context.Context, email string) (*models.Account, error) {
	if email == "" {
		return nil, providers.NewValidationError(models.ProviderAtlassian, "email is required")
	}
	var users []userEntry
	if err := a.client.Get(ctx, "lookup", "/users?email="+url.QueryEscape(email), &users); err != nil {
		return nil, err
	}
	var user *userEntry
	for i := range users {
		if users[i].EmailAddress != nil && strings.EqualFold(*users[i].EmailAddress, email) {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return nil, providers.NewProviderError(models.FailureNotFound, models.ProviderAtlassian, "no user with this email", nil)
	}

	var groups []Group
	if err := a.client.Get(ctx, "user_groups", userPath(user.AccountID)+"/groups", &groups); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}

	status := models.StatusSuspended
	if user.Active {
		status = models.StatusActive
	}
	return &models.Account{
		Provider:      models.ProviderAtlassian,
		DisplayName:   user.DisplayName,
		Email:         email,
		ServiceName:   serviceName,
		ServiceID:     user.AccountID,
		Status:        status,
		RawIdentifier: email,
		ExternalID:    user.AccountID,
		Groups:        names,
	}, nil
}

type membershipRequest struct {
	AccountID string `json:"accountId"`
}

func (a *Adapter) PerformAction(ctx context.Context, kind models.ActionKind, account *models.Account, params models.ActionParams) (*models.ActionResult, error) {
	if account == nil || account.ExternalID == "" {
		return nil, providers.NewValidationError(models.ProviderAtlassian, "account id is required")
	}
	accountID := account.ExternalID

	switch kind {
	case models.ActionAssignToGroup, models.ActionRemoveFromGroup:
		group := strings.TrimSpace(params.GroupID)
		if group == "" {
			return nil, providers.NewValidationError(models.ProviderAtlassian, "group is required")
		}
		if kind == models.ActionAssignToGroup {
			err := a.client.Do(ctx, "assign_group", http.MethodPost, groupPath(group)+"/users", membershipRequest{AccountID: accountID}, nil)
			if err != nil {
				return nil, err
			}
			return &models.ActionResult{Message: "Usuário adicionado ao grupo.", Data: map[string]string{"group": group}}, nil
		}
		err := a.client.Do(ctx, "remove_group", http.MethodDelete, groupPath(group)+"/users/"+upstream.PathEscape(accountID), nil, nil)
		if err != nil {
			return nil, err
		}
		return &models.ActionResult{Message: "Usuário removido do grupo.", Data: map[string]string{"group": group}}, nil

	case models.ActionSuspend:
		if err := a.client.Do(ctx, "disable", http.MethodPost, userPath(accountID)+"/lifecycle/disable", nil, nil); err != nil {
			return nil, err
		}
		return &models.ActionResult{Message: "Usuário desativado."}, nil

	case models.ActionReactivate:
		if err := a.client.Do(ctx, "enable", http.MethodPost, userPath(accountID)+"/lifecycle/enable", nil, nil); err != nil {
			return nil, err
		}
		return &models.ActionResult{Message: "Usuário reativado."}, nil
	}

	return nil, providers.NewProviderError(models.FailureValidation, models.ProviderAtlassian,
		"action "+string(kind)+" is not supported", providers.ErrUnsupportedAction)
}

// ListGroups returns every group known to the tracker.
func (a *Adapter) ListGroups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := a.client.Get(ctx, "list_groups", "/groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// CreateGroup creates a group and returns it as stored upstream.
func (a *Adapter) CreateGroup(ctx context.Context, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, providers.NewValidationError(models.ProviderAtlassian, "group name is required")
	}
	var group Group
	if err := a.client.Do(ctx, "create_group", http.MethodPost, "/groups", createGroupRequest{Name: name}, &group); err != nil {
		return nil, err
	}
	if group.Name == "" {
		group.Name = name
	}
	return &group, nil
}

// DeleteGroup removes a group by id.
func (a *Adapter) DeleteGroup(ctx context.Context, groupID string) error {
	if strings.TrimSpace(groupID) == "" {
		return providers.NewValidationError(models.ProviderAtlassian, "group id is required")
	}
	return a.client.Do(ctx, "delete_group", http.MethodDelete, groupPath(groupID), nil, nil)
}

// LicenseUsage reports seat usage per product.
func (a *Adapter) LicenseUsage(ctx context.Context) ([]LicenseUsage, error) {
	var usage []LicenseUsage
	if err := a.client.Get(ctx, "license_usage", "/license/usage", &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Health(ctx, healthPath)
}

func userPath(accountID string) string {
	return "/users/" + upstream.PathEscape(accountID)
}

func groupPath(group string) string {
	return "/groups/" + upstream.PathEscape(group)
}
