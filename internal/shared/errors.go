package shared

import "fmt"

// InvalidTokenMessage is logged when the identity check is rejected with 401.
//
// Callers may match on it to detect a misconfigured token.
const InvalidTokenMessage = `Invalid "auth_token" used for SoundCloud authentication!`

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")
	ErrNoClientID = fmt.Errorf("public client id not found")

	// API and service errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrRateLimited       = fmt.Errorf("rate limited")
	ErrNotFound          = fmt.Errorf("resource not found")
	ErrMalformedResponse = fmt.Errorf("malformed response")
	ErrNotStreamable     = fmt.Errorf("track cannot be streamed")

	// Input validation errors
	ErrInvalidURI      = fmt.Errorf("invalid URI")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
