package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrMissingCredential occurs when a protected route is called without a bearer token.
	ErrMissingCredential = errors.New("no token, authorization denied")
	// ErrInvalidCredential covers bad tokens, wrong passwords and unknown emails alike.
	ErrInvalidCredential = errors.New("invalid credentials")
	// ErrDuplicateEmail occurs when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrForbidden occurs when an authenticated user acts on a resource they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrStoreFailure wraps unexpected persistence errors.
	ErrStoreFailure = errors.New("store failure")
)

// ValidationError carries a message that is safe to show to API callers.
type ValidationError struct {
	Message string
}

// Invalid returns a ValidationError with the given message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
