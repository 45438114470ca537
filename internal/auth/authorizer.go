package auth

import "github.com/campusgive/campusgive/internal/shared"

// PasswordVerifier checks a plaintext password against a stored digest.
type PasswordVerifier interface {
	Verify(plaintext, digest string) bool
}

// Authorizer decides whether an identity may act on an owned resource.
type Authorizer struct {
	verifier PasswordVerifier
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(verifier PasswordVerifier) *Authorizer {
	return &Authorizer{verifier: verifier}
}

// AuthorizeMutation allows the action only when userID owns the resource.
func (a *Authorizer) AuthorizeMutation(ownerID, userID string) error {
	if ownerID == "" || userID == "" || ownerID != userID {
		return shared.ErrForbidden
	}
	return nil
}

// AuthorizeDestructiveAction additionally requires the owner to re-enter
// their password. Ownership is checked first, so a non-owner gets
// shared.ErrForbidden whatever password they supply.
func (a *Authorizer) AuthorizeDestructiveAction(ownerID, userID, password, digest string) error {
	if err := a.AuthorizeMutation(ownerID, userID); err != nil {
		return err
	}
	if password == "" || !a.verifier.Verify(password, digest) {
		return shared.ErrInvalidCredential
	}
	return nil
}
