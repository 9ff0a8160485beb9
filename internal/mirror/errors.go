package mirror

import "errors"

// Common errors returned by the mirror client.
var (
	// ErrMissingCredentials is returned when the API user, token, or URL
	// is not configured.
	ErrMissingCredentials = errors.New("mirror credentials not configured")

	// ErrTaskNotFound is returned when a task lookup gets a 404.
	ErrTaskNotFound = errors.New("mirror task not found")
)
