package route

import (
	"errors"
	"fmt"
)

// Table construction errors. A *ConfigError wraps one of these; match with errors.Is.
var (
	ErrInvalidDescriptor = errors.New("invalid route descriptor")
	ErrDuplicatePath     = errors.New("duplicate route path")
	ErrDuplicateName     = errors.New("duplicate route name")
	ErrMissingRoot       = errors.New("no route matches /")
	ErrRootNotRedirect   = errors.New("route / must be a redirect")
	ErrUnknownTarget     = errors.New("redirect target matches no route")
	ErrRedirectLoop      = errors.New("redirect loop")
)

// Lookup errors returned by Table.Resolve and Table.URL.
var (
	ErrNoMatch      = errors.New("no route matches path")
	ErrUnknownName  = errors.New("unknown route name")
	ErrMissingParam = errors.New("missing route parameter")
)

// ConfigError reports an authoring defect in a route table.
// Index is -1 when the defect concerns the table as a whole.
type ConfigError struct {
	Index int
	Path  string
	Err   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("route table: %v", e.Err)
	}
	return fmt.Sprintf("route[%d] %q: %v", e.Index, e.Path, e.Err)
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
