package service

import "errors"

// Messages double as the user-facing error strings; handlers return them
// verbatim.
var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrMaxUsers           = errors.New("Maximum user limit reached")
	ErrUsernameTaken      = errors.New("Username already exists")
	ErrEmailTaken         = errors.New("Email already exists")
	ErrSelfDelete         = errors.New("Cannot delete your own account")
	ErrSelfDeactivate     = errors.New("Cannot deactivate your own account")
	ErrInvalidStatus      = errors.New("Invalid status. Must be active or inactive")
	ErrInvalidRole        = errors.New("Invalid role")
	ErrEmptyTemplate      = errors.New("No template items found")
	ErrInvalidMonth       = errors.New("Month must be in YYYY-MM format")
)

// ValidationError reports a rejected signup field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}
