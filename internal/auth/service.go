package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusgive/campusgive/internal/shared"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints bearer tokens for a user ID.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Invalidator drops cached aggregates that depend on the user count.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

const decoyPassword = "campusgive-decoy-password"

// Service wraps registration and login rules.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer

	decoyDigest  string
	invalidators []Invalidator
}

// NewService constructs a new Service. The decoy digest used for unknown
// emails is computed here; if hashing fails, Login hashes the supplied
// password instead so both paths still cost one bcrypt operation.
func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer) *Service {
	s := &Service{repo: repo, hasher: hasher, tokens: tokens}
	if digest, err := hasher.Hash(decoyPassword); err == nil {
		s.decoyDigest = digest
	}
	return s
}

// InvalidateOnRegister registers inv to be called after each new account.
func (s *Service) InvalidateOnRegister(inv Invalidator) {
	s.invalidators = append(s.invalidators, inv)
}

// Register creates an account and returns its identifier.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	_, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return "", shared.ErrDuplicateEmail
	case !errors.Is(err, shared.ErrNotFound):
		return "", err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", err
	}
	id, err := s.repo.Insert(ctx, User{Name: in.Name, Email: in.Email, PasswordHash: digest})
	if err != nil {
		return "", err
	}
	for _, inv := range s.invalidators {
		inv.Invalidate(ctx)
	}
	return id, nil
}

// Login validates email/password credentials and issues a token. Unknown
// emails and wrong passwords both return shared.ErrInvalidCredential.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.burnDecoy(in.Password)
			return nil, shared.ErrInvalidCredential
		}
		return nil, err
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredential
	}
	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}
	return &LoginResult{Token: signed, User: user.Public()}, nil
}

// Profile returns the public fields of the given user.
func (s *Service) Profile(ctx context.Context, userID string) (*PublicUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// Credential loads the stored password digest for step-up checks.
func (s *Service) Credential(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrInvalidCredential
		}
		return "", err
	}
	return user.PasswordHash, nil
}

// burnDecoy spends the same hashing effort as a real comparison.
func (s *Service) burnDecoy(plaintext string) {
	if s.decoyDigest != "" {
		s.hasher.Verify(plaintext, s.decoyDigest)
		return
	}
	_, _ = s.hasher.Hash(plaintext)
}
