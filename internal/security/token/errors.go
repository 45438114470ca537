package token

import "errors"

var (
	// ErrInvalidSignature means the signature does not match the header and
	// payload, or the token was signed with an unexpected algorithm.
	ErrInvalidSignature = errors.New("token: invalid signature")
	// ErrExpired means the token is correctly signed but past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrMalformed means the token could not be decoded or lacks a subject.
	ErrMalformed = errors.New("token: malformed")
	// ErrWeakSecret is returned by NewManager for missing or short secrets.
	ErrWeakSecret = errors.New("token: signing secret too short")
)
