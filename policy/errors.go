package policy

import (
	"errors"
	"fmt"
)

// Sentinel errors for policy loading.
var (
	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("policy: invalid configuration")

	// ErrUndefinedEffect indicates the model names a policy effect the engine
	// does not implement.
	ErrUndefinedEffect = errors.New("policy: undefined matching effect")

	// ErrUnsupportedMatcher indicates a matcher expression outside the
	// supported conjunction of g() and equality terms.
	ErrUnsupportedMatcher = errors.New("policy: unsupported matcher")
)

// ConfigError reports a malformed model, rule table or grouping relation.
// It is fatal at startup.
type ConfigError struct {
	// Source names the input (file path, "model", "rules", "grouping").
	Source string

	// Line is the 1-based line number, or 0 when not line specific.
	Line int

	// Reason describes the problem.
	Reason string

	// Err is the underlying error if any.
	Err error
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("policy: %s: %s: %v", loc, e.Reason, e.Err)
	}
	return fmt.Sprintf("policy: %s: %s", loc, e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func configErr(source string, line int, reason string, err error) *ConfigError {
	return &ConfigError{Source: source, Line: line, Reason: reason, Err: err}
}
