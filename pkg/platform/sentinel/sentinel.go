package sentinel

import "errors"

// ErrUnavailable marks an infrastructure outage. Stores return it (optionally
// joined with the driver error) so callers can tell an outage from a bug.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var ErrUnavailable = errors.New("unavailable")
