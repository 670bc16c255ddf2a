package providers

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	"opsconsole/internal/account/models"
)

// DefaultBusyMarkers are payload fragments upstreams use to say "try later"
// without a 5xx status.
var DefaultBusyMarkers = []string{"service busy", "servico ocupado", "serviço ocupado", "try again later"}

// Classify maps any error into the failure taxonomy. It is advisory: the
// result picks a user-facing message and never triggers a retry.
func Classify(err error) models.FailureKind {
	if err == nil {
		return models.FailureNone
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ClassifyTransport(err)
}

// ClassifyResponse classifies an upstream HTTP response. A 2xx status is
// always a success. On error statuses a busy marker in the body outranks the
// status code.
func ClassifyResponse(status int, body []byte, busyMarkers []string) models.FailureKind {
	if status >= 200 && status < 300 {
		return models.FailureNone
	}
	if status == http.StatusTooManyRequests || hasBusyMarker(body, busyMarkers) {
		return models.FailureUpstreamTransient
	}
	switch {
	case status == http.StatusNotFound:
		return models.FailureNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return models.FailureValidation
	case status >= 500:
		return models.FailureUpstreamDown
	default:
		return models.FailureUnknown
	}
}

// ClassifyTransport classifies errors returned by the HTTP client itself.
func ClassifyTransport(err error) models.FailureKind {
	switch {
	case err == nil:
		return models.FailureNone
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return models.FailureUpstreamDown
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return models.FailureUpstreamDown
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.FailureUpstreamDown
	}
	return models.FailureUnknown
}

// IsDialFailure reports whether err happened before a connection was made,
// meaning the upstream never saw the request.
func IsDialFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func hasBusyMarker(body []byte, markers []string) bool {
	if len(body) == 0 {
		return false
	}
	lower := bytes.ToLower(body)
	for _, m := range markers {
		if m != "" && bytes.Contains(lower, bytes.ToLower([]byte(m))) {
			return true
		}
	}
	return false
}

var userMessages = map[models.FailureKind]string{
	models.FailureNotFound:          "Registro não encontrado.",
	models.FailureValidation:        "Dados informados inválidos. Verifique e tente novamente.",
	models.FailureUpstreamTransient: "O serviço está ocupado no momento. Tente novamente em instantes.",
	models.FailureUpstreamDown:      "O serviço está indisponível. Tente novamente mais tarde.",
	models.FailureUnknown:           "Não foi possível concluir a operação.",
}

// UserMessage returns a message the UI can show as-is for a failure kind.
func UserMessage(kind models.FailureKind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[models.FailureUnknown]
}
