package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/security/password"
	"github.com/campusgive/campusgive/internal/security/token"
	"github.com/campusgive/campusgive/internal/shared"
	_ "github.com/campusgive/campusgive/testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memoryRepo is an in-memory credential store enforcing unique emails.
type memoryRepo struct {
	mu      sync.Mutex
	byID    map[string]auth.User
	byEmail map[string]string

	// hideOnLookup makes FindByEmail miss, simulating a concurrent
	// registration that lands between the pre-check and the insert.
	hideOnLookup bool
	failWith     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[string]auth.User{}, byEmail: map[string]string{}}
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	id, ok := m.byEmail[email]
	if !ok || m.hideOnLookup {
		return nil, shared.ErrNotFound
	}
	u := m.byID[id]
	return &u, nil
}

func (m *memoryRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *memoryRepo) Insert(ctx context.Context, user auth.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return "", m.failWith
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return "", shared.ErrDuplicateEmail
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return user.ID, nil
}

type fixture struct {
	repo    *memoryRepo
	hasher  *password.Hasher
	tokens  *token.Manager
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := token.NewManager([]byte(testSecret), time.Hour)
	require.NoError(t, err)
	repo := newMemoryRepo()
	return &fixture{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		service: auth.NewService(repo, hasher, tokens),
	}
}

func (f *fixture) register(t *testing.T, name, email, pass string) string {
	t.Helper()
	id, err := f.service.Register(context.Background(), auth.RegisterInput{Name: name, Email: email, Password: pass})
	require.NoError(t, err)
	return id
}
