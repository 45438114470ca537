package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/shared"
)

func TestAuthorizeMutation(t *testing.T) {
	f := newFixture(t)
	authz := auth.NewAuthorizer(f.hasher)

	assert.NoError(t, authz.AuthorizeMutation("alice", "alice"))
	assert.ErrorIs(t, authz.AuthorizeMutation("alice", "bob"), shared.ErrForbidden)
	assert.ErrorIs(t, authz.AuthorizeMutation("", ""), shared.ErrForbidden)
	assert.ErrorIs(t, authz.AuthorizeMutation("alice", ""), shared.ErrForbidden)
}

func TestAuthorizeDestructiveAction(t *testing.T) {
	f := newFixture(t)
	authz := auth.NewAuthorizer(f.hasher)

	aliceDigest, err := f.hasher.Hash("alice-pass")
	require.NoError(t, err)
	bobDigest, err := f.hasher.Hash("bob-pass")
	require.NoError(t, err)

	cases := []struct {
		name     string
		owner    string
		user     string
		password string
		digest   string
		want     error
	}{
		{"owner with correct password", "alice", "alice", "alice-pass", aliceDigest, nil},
		{"owner with wrong password", "alice", "alice", "bob-pass", aliceDigest, shared.ErrInvalidCredential},
		{"owner with empty password", "alice", "alice", "", aliceDigest, shared.ErrInvalidCredential},
		{"non-owner with own correct password", "alice", "bob", "bob-pass", bobDigest, shared.ErrForbidden},
		{"non-owner with owner's password", "alice", "bob", "alice-pass", aliceDigest, shared.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authz.AuthorizeDestructiveAction(tc.owner, tc.user, tc.password, tc.digest)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
