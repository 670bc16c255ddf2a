package dispatch

import (
	"strings"

	"opsconsole/internal/account/models"
)

// verdict is the result of an eligibility check. A zero verdict means the
// action may proceed.
type verdict struct {
	status  models.OutcomeStatus
	reason  models.IneligibleReason
	failure models.FailureKind
	message string
}

func (v verdict) allowed() bool {
	return v.status == ""
}

func ineligible(reason models.IneligibleReason) verdict {
	return verdict{status: models.OutcomeIneligible, reason: reason, message: reasonMessages[reason]}
}

func noop(reason models.IneligibleReason) verdict {
	return verdict{status: models.OutcomeNoop, reason: reason, message: reasonMessages[reason]}
}

func invalid(message string) verdict {
	return verdict{status: models.OutcomeFailed, failure: models.FailureValidation, message: message}
}

var reasonMessages = map[models.IneligibleReason]string{
	models.ReasonUnsupportedAction:    "Ação não disponível para este serviço.",
	models.ReasonAlreadyActive:        "A conta já está ativa.",
	models.ReasonServiceCanceled:      "O serviço está cancelado.",
	models.ReasonNotPendingActivation: "A conta não está aguardando ativação.",
	models.ReasonAlreadySuspended:     "A conta já está suspensa.",
}

// checkEligibility applies the status rules for kind. Support for the kind by
// the provider is checked by the caller.
func checkEligibility(kind models.ActionKind, status models.Status, params models.ActionParams) verdict {
	switch kind {
	case models.ActionResendActivation:
		switch status {
		case models.StatusCheckout:
			return verdict{}
		case models.StatusActive:
			return ineligible(models.ReasonAlreadyActive)
		case models.StatusCanceled:
			return ineligible(models.ReasonServiceCanceled)
		default:
			return ineligible(models.ReasonNotPendingActivation)
		}

	case models.ActionSuspend:
		switch status {
		case models.StatusSuspended:
			return noop(models.ReasonAlreadySuspended)
		case models.StatusCanceled:
			return noop(models.ReasonServiceCanceled)
		}

	case models.ActionResetPassword:
		if status == models.StatusSuspended {
			return noop(models.ReasonAlreadySuspended)
		}

	case models.ActionReactivate:
		switch status {
		case models.StatusActive:
			return noop(models.ReasonAlreadyActive)
		case models.StatusCanceled:
			return ineligible(models.ReasonServiceCanceled)
		}

	case models.ActionResync:
		if status == models.StatusCanceled {
			return ineligible(models.ReasonServiceCanceled)
		}

	case models.ActionAssignToGroup, models.ActionRemoveFromGroup:
		if strings.TrimSpace(params.GroupID) == "" {
			return invalid("Informe o grupo.")
		}
	}
	return verdict{}
}
