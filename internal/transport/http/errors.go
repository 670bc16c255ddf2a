package httptransport

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/account/models"
	"opsconsole/internal/providers"
	dErrors "opsconsole/pkg/domain-errors"
	"opsconsole/pkg/platform/httputil"
)

// codeForFailure maps a failure classification onto the edge error codes.
func codeForFailure(kind models.FailureKind) dErrors.Code {
	switch kind {
	case models.FailureNone:
		return ""
	case models.FailureNotFound:
		return dErrors.CodeNotFound
	case models.FailureValidation:
		return dErrors.CodeValidation
	case models.FailureUpstreamTransient:
		return dErrors.CodeServiceUnavailable
	default:
		return dErrors.CodeBadGateway
	}
}

// statusForFailure is the HTTP status for an outcome carrying kind.
func statusForFailure(kind models.FailureKind) int {
	code := codeForFailure(kind)
	if code == "" {
		return http.StatusOK
	}
	return httputil.StatusFor(code)
}

// writeProviderError classifies err and writes the user-facing message.
func writeProviderError(w http.ResponseWriter, err error) {
	kind := providers.Classify(err)
	httputil.WriteError(w, dErrors.Wrap(err, codeForFailure(kind), providers.UserMessage(kind)))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// pathParam returns a decoded URL parameter. Identifiers may carry an
// escaped '/', which chi leaves encoded when routing on the raw path.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
