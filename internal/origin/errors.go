package origin

import "errors"

var (
	// ErrMissingCredentials is returned when the client is constructed
	// without a token or base URL.
	ErrMissingCredentials = errors.New("origin credentials not configured")
)
