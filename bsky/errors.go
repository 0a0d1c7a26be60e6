package bsky

import "errors"

var (
	// ErrMissingCredential is returned when a search call requires a bearer
	// token and none was supplied. Callers are expected to skip the source
	// rather than fail the build.
	ErrMissingCredential = errors.New("missing access credential")

	// ErrRequestFailed indicates a non-success HTTP status from the API.
	ErrRequestFailed = errors.New("content API request failed")

	// ErrRequestRejected indicates a client-error status that retrying
	// cannot fix, such as 401 from a bad token or 400 from a bad query.
	ErrRequestRejected = errors.New("content API rejected the request")

	// ErrTooManyIDs indicates a detail request exceeding the per-call limit.
	ErrTooManyIDs = errors.New("too many item ids for one detail call")
)
