package models

import "fmt"

// ActionKind is the closed set of mutating operations an operator can request.
type ActionKind string

const (
	ActionResendActivation ActionKind = "resend_activation"
	ActionResetPassword    ActionKind = "reset_password"
	ActionSuspend          ActionKind = "suspend"
	ActionReactivate       ActionKind = "reactivate"
	ActionRemoveFromGroup  ActionKind = "remove_from_group"
	ActionAssignToGroup    ActionKind = "assign_to_group"
	ActionResync           ActionKind = "resync"
)

var actionLabels = map[ActionKind]string{
	ActionResendActivation: "Reenviar link",
	ActionResetPassword:    "Resetar senha",
	ActionSuspend:          "Suspender",
	ActionReactivate:       "Reativar",
	ActionRemoveFromGroup:  "Remover do grupo",
	ActionAssignToGroup:    "Adicionar ao grupo",
	ActionResync:           "Fixit",
}

// ParseActionKind validates an action kind supplied by a caller.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if _, ok := actionLabels[k]; !ok {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return k, nil
}

// Label is the human-readable action recorded in the audit log.
func (k ActionKind) Label() string {
	if label, ok := actionLabels[k]; ok {
		return label
	}
	return string(k)
}

// ActionParams carries the optional, kind-specific inputs of an action.
type ActionParams struct {
	GroupID string `json:"group_id,omitempty"`
	Verify  bool   `json:"verify,omitempty"`
}

// ActionRequest is what an operator asks the dispatcher to do.
type ActionRequest struct {
	Kind       ActionKind
	Identifier string
	Provider   Provider
	ActorName  string
	Extra      ActionParams
}

// ActionResult is what an adapter reports back after a successful upstream call.
type ActionResult struct {
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}
