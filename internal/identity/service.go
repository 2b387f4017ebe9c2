package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/walletd/walletd/internal/domain"
	"github.com/walletd/walletd/internal/store"
)

const maxUsernameLength = 64

var (
	// ErrInvalidUsername is returned for empty, oversized or non-printable names.
	ErrInvalidUsername = errors.New("username must be 1-64 letters, digits, '.', '_' or '-'")
	// ErrUsernameTaken mirrors the store conflict for callers outside the store.
	ErrUsernameTaken = store.ErrUsernameTaken
)

// Service seeds users into the wallet store. Real deployments sync users from
// the external identity provider; this path exists for development.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a new identity service.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a user with no wallets.
func (s *Service) Register(ctx context.Context, username string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return domain.User{}, ErrInvalidUsername
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func validUsername(name string) bool {
	if name == "" || len(name) > maxUsernameLength {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			continue
		}
		return false
	}
	return true
}
