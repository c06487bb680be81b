package secret

import "errors"

var (
	// ErrMissingEnv reports ${VAR} references to unset variables.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrUnknownProvider reports a reference to an unregistered provider.
	ErrUnknownProvider = errors.New("secret: provider is not registered")

	// ErrEmptyValue reports a provider that resolved to an empty string in
	// strict mode.
	ErrEmptyValue = errors.New("secret: provider returned empty value")

	// ErrNotFound reports a reference the provider has no value for.
	ErrNotFound = errors.New("secret: not found")
)
