package oauth

import "errors"

// Package-level errors
var (
	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedArgs indicates a phase has no parameter list to resolve
	ErrMalformedArgs = errors.New("malformed parameter list")

	// ErrMissingDependency indicates a required collaborator was not supplied
	ErrMissingDependency = errors.New("missing dependency")

	// ErrDuplicateIntegration indicates two integrations share a settings name
	ErrDuplicateIntegration = errors.New("duplicate integration")

	// ErrDuplicateAction indicates two routes claim the same action
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrUnknownIntegration indicates the requested integration doesn't exist
	ErrUnknownIntegration = errors.New("unknown integration")

	// ErrTransport indicates the outbound call did not produce a response
	ErrTransport = errors.New("transport error")
)
