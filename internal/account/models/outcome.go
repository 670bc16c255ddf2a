package models

// OutcomeStatus distinguishes the four results a caller must handle.
type OutcomeStatus string

const (
	OutcomeSucceeded  OutcomeStatus = "succeeded"
	OutcomeIneligible OutcomeStatus = "ineligible"
	OutcomeNoop       OutcomeStatus = "noop"
	OutcomeFailed     OutcomeStatus = "failed"
)

// IneligibleReason names the business rule that refused an action.
type IneligibleReason string

const (
	ReasonNone                 IneligibleReason = ""
	ReasonUnsupportedAction    IneligibleReason = "unsupported_action"
	ReasonAlreadyActive        IneligibleReason = "already_active"
	ReasonServiceCanceled      IneligibleReason = "service_canceled"
	ReasonNotPendingActivation IneligibleReason = "not_pending_activation"
	ReasonAlreadySuspended     IneligibleReason = "already_suspended"
)

// FailureKind is the advisory classification of a failed upstream interaction.
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureNotFound          FailureKind = "not_found"
	FailureValidation        FailureKind = "validation_failure"
	FailureUpstreamTransient FailureKind = "upstream_transient_failure"
	FailureUpstreamDown      FailureKind = "upstream_unavailable"
	FailureUnknown           FailureKind = "unknown"
)

// ActionOutcome is the typed result of a dispatch. It is never an error value:
// ineligible and no-op outcomes are friendly results, not failures.
type ActionOutcome struct {
	Status  OutcomeStatus    `json:"status"`
	Reason  IneligibleReason `json:"reason,omitempty"`
	Failure FailureKind      `json:"failure,omitempty"`
	Message string           `json:"message"`
	Result  *ActionResult    `json:"result,omitempty"`
}

// LookupStatus distinguishes found, absent, rejected and failed lookups.
type LookupStatus string

const (
	LookupFound    LookupStatus = "found"
	LookupNotFound LookupStatus = "not_found"
	LookupInvalid  LookupStatus = "invalid"
	LookupFailed   LookupStatus = "failed"
)

// LookupOutcome is the typed result of a lookup.
type LookupOutcome struct {
	Status  LookupStatus `json:"status"`
	Account *Account     `json:"account,omitempty"`
	Failure FailureKind  `json:"failure,omitempty"`
	Message string       `json:"message,omitempty"`
}
