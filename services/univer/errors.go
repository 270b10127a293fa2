package univer

import "errors"

var (
	// ErrInvalidCredential means the portal rejected the username or
	// password outright. Not retryable.
	ErrInvalidCredential = errors.New("univer: invalid credentials")

	// ErrAuthorizationExpired means a previously valid session cookie
	// was bounced back to the login form. The session manager reacts to
	// this with exactly one relogin.
	ErrAuthorizationExpired = errors.New("univer: authorization expired")

	// ErrAuthorizationTimeout means a caller waited too long for the
	// shared login slot.
	ErrAuthorizationTimeout = errors.New("univer: timed out waiting for login")

	// ErrTimeout is a network-level failure talking to the portal.
	ErrTimeout = errors.New("univer: portal request timed out")
)
