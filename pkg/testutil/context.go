package testutil

import (
	"net/http"

	"opsconsole/pkg/requestcontext"
)

// WithOperator adds the operator name to the request context, as the auth
// middleware does for a valid token.
func WithOperator(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithClientIP adds the client IP to the request context, as the client
// metadata middleware does.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, req.UserAgent()))
}
