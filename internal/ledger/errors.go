package ledger

import "errors"

var (
	// ErrNoSession is returned by operations that need a logged-in user.
	ErrNoSession = errors.New("no active session")
	// ErrSessionActive is returned by Login while someone is already logged in.
	ErrSessionActive = errors.New("a session is already active")
	// ErrInvalidCredentials is returned when no user matches the email and password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrForbidden is returned when the session's role does not allow the operation.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned for unknown transaction or user ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for drafts that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateEmail is returned by AddUser when the email is already used.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrNoEndpoint is returned by sync operations when no sheet URL is configured.
	ErrNoEndpoint = errors.New("no sheet endpoint configured")
)
