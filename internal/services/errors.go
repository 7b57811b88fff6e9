package services

import "errors"

// Login resolves to exactly one of these failure states so clients can
// render distinct guidance.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeleted     = errors.New("account deleted")
)

// ErrNotOwner is returned when a requester acts on a message they do
// not own and lacks staff rights.
var ErrNotOwner = errors.New("not the message owner")
