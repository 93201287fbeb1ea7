package login

import "errors"

var (
	// ErrInvalidCredentials is returned when the provided username and/or
	// password are not valid.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountInactive is returned when the account exists but is disabled.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidRegistration is returned when the registration payload fails
	// validation.
	ErrInvalidRegistration = errors.New("invalid registration data")

	// ErrUsernameTaken is returned when the requested username is reserved or
	// already in use.
	ErrUsernameTaken = errors.New("username is not available")
)
