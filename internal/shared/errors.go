package shared

import "errors"

var (
	// ErrNotFound indicates no matching record.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate indicates the email or username is already taken.
	ErrDuplicate = errors.New("user already exists")
	// ErrInvalidCredentials indicates a password mismatch during login.
	ErrInvalidCredentials = errors.New("unauthorized")
	// ErrTokenInvalidOrExpired covers unknown, expired and already-consumed
	// activation tokens. The cases are indistinguishable on purpose.
	ErrTokenInvalidOrExpired = errors.New("activation token expired, please register again")
	// ErrEmailDelivery indicates the activation mail could not be dispatched.
	ErrEmailDelivery = errors.New("unable to send email")
)
