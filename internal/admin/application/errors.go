package application

import "errors"

var (
	// ErrUnauthenticated means no usable session accompanies the request.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrSessionExpired means the access token is past its expiry and must be refreshed.
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden means the identity is known but lacks the admin role.
	ErrForbidden = errors.New("admin role required")
	// ErrBackendNotConfigured is returned when the backend URL or key is missing.
	ErrBackendNotConfigured = errors.New("Missing Supabase environment variables")
)

// ValidationError reports rejected user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
