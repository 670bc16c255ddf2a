// Package directory adapts the corporate directory REST bridge.
package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"opsconsole/internal/account/identifier"
	"opsconsole/internal/account/models"
	"opsconsole/internal/account/normalize"
	"opsconsole/internal/providers"
	"opsconsole/internal/providers/upstream"
)

const (
	version     = "v1.0.0"
	serviceName = "Active Directory"
	healthPath  = "/health"
)

// Adapter implements providers.Provider for the directory service.
type Adapter struct {
	client *upstream.Client
}

// New builds a directory adapter on top of a configured upstream client.
func New(client *upstream.Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) ID() models.Provider {
	return models.ProviderDirectory
}

func (a *Adapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol:   providers.ProtocolHTTP,
		Provider:   models.ProviderDirectory,
		Identifier: identifier.KindUsername,
		Actions:    []models.ActionKind{models.ActionResetPassword, models.ActionSuspend},
		Version:    version,
	}
}

// flexString accepts a JSON string, number or null. The bridge is not
// consistent about quoting numeric attributes.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type userResponse struct {
	SAMAccountName     string     `json:"sAMAccountName"`
	DistinguishedName  string     `json:"distinguishedName"`
	DisplayName        string     `json:"displayName"`
	Mail               *string    `json:"mail"`
	Mobile             string     `json:"mobile"`
	TelephoneNumber    string     `json:"telephoneNumber"`
	EmployeeID         string     `json:"employeeID"`
	UserAccountControl flexString `json:"userAccountControl"`
	AccountExpires     flexString `json:"accountExpires"`
	PwdLastSet         flexString `json:"pwdLastSet"`
	MemberOf           []string   `json:"memberOf"`
}

func (a *Adapter) Lookup(ctx context.Context, id string) (*models.Account, error) {
	if id == "" {
		return nil, providers.NewValidationError(models.ProviderDirectory, "username is required")
	}
	var resp userResponse
	if err := a.client.Get(ctx, "lookup", userPath(id), &resp); err != nil {
		return nil, err
	}
	return toAccount(id, resp), nil
}

func toAccount(id string, resp userResponse) *models.Account {
	phone := resp.Mobile
	if phone == "" {
		phone = resp.TelephoneNumber
	}
	groups := make([]string, 0, len(resp.MemberOf))
	for _, dn := range resp.MemberOf {
		groups = append(groups, normalize.FormatGroupName(dn))
	}
	uac := string(resp.UserAccountControl)
	return &models.Account{
		Provider:        models.ProviderDirectory,
		DisplayName:     resp.DisplayName,
		Document:        normalize.FormatDocument(resp.EmployeeID),
		Phone:           normalize.FormatPhone(phone),
		PhoneDigits:     normalize.Digits(phone),
		Email:           normalize.EmailOrSentinel(resp.Mail, models.NotInformed),
		ServiceName:     serviceName,
		ServiceID:       resp.SAMAccountName,
		Status:          normalize.DirectoryStatus(uac),
		DirectoryState:  normalize.DirectoryState(uac),
		RawIdentifier:   id,
		ExternalID:      resp.DistinguishedName,
		Groups:          groups,
		AccountExpires:  normalize.ConvertADFileTime(string(resp.AccountExpires)),
		PasswordLastSet: normalize.ConvertADFileTime(string(resp.PwdLastSet)),
	}
}

type resetResponse struct {
	Password      string `json:"password"`
	Authenticated *bool  `json:"authenticated"`
}

func (a *Adapter) PerformAction(ctx context.Context, kind models.ActionKind, account *models.Account, params models.ActionParams) (*models.ActionResult, error) {
	if account == nil || account.RawIdentifier == "" {
		return nil, providers.NewValidationError(models.ProviderDirectory, "account identifier is required")
	}
	id := account.RawIdentifier

	switch kind {
	case models.ActionResetPassword:
		suffix, op := "/reset-password", "reset_password"
		if params.Verify {
			suffix, op = "/reset-and-test", "reset_and_test"
		}
		var resp resetResponse
		if err := a.client.Do(ctx, op, http.MethodPut, userPath(id)+suffix, nil, &resp); err != nil {
			return nil, err
		}
		result := &models.ActionResult{Message: "Senha resetada com sucesso.", Data: map[string]string{}}
		if resp.Password != "" {
			result.Data["temporary_password"] = resp.Password
		}
		if resp.Authenticated != nil {
			result.Data["authenticated"] = strconv.FormatBool(*resp.Authenticated)
			if !*resp.Authenticated {
				result.Message = "Senha resetada, mas o teste de autenticação falhou."
			}
		}
		return result, nil

	case models.ActionSuspend:
		if err := a.client.Do(ctx, "disable", http.MethodPut, userPath(id)+"/disable", nil, nil); err != nil {
			return nil, err
		}
		return &models.ActionResult{Message: "Conta desabilitada com sucesso."}, nil
	}

	return nil, providers.NewProviderError(models.FailureValidation, models.ProviderDirectory,
		"action "+string(kind)+" is not supported", providers.ErrUnsupportedAction)
}

type authRequest struct {
	Password string `json:"password"`
}

type authResponse struct {
	Authenticated bool `json:"authenticated"`
}

// TestAuthentication checks a password against the directory without
// changing anything. It is read-only and never audited.
func (a *Adapter) TestAuthentication(ctx context.Context, id, password string) (bool, error) {
	if id == "" || password == "" {
		return false, providers.NewValidationError(models.ProviderDirectory, "username and password are required")
	}
	var resp authResponse
	if err := a.client.Do(ctx, "test_authentication", http.MethodPost, userPath(id)+"/test-authentication", authRequest{Password: password}, &resp); err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Health(ctx, healthPath)
}

func userPath(id string) string {
	return "/ad/user/" + upstream.PathEscape(id)
}
