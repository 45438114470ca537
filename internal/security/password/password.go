// Package password hashes and verifies user passwords using bcrypt.
//
// The digest produced by Hash embeds the algorithm version, the cost factor
// and the salt, so a stored digest is all Verify needs.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusgive/campusgive/internal/shared"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// ErrInvalidCost is returned by NewHasher for costs outside bcrypt's range.
var ErrInvalidCost = errors.New("password: bcrypt cost out of range")

// Hasher produces salted bcrypt digests with a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. A zero cost selects DefaultCost.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	return &Hasher{cost: cost}, nil
}

// Cost reports the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a digest of plaintext using a freshly generated salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", shared.ErrValidation)
		}
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Mismatches and malformed
// digests both yield false.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
