package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/walletd/walletd/internal/store"
)

func TestRegisterCreatesUser(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  alice ")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected trimmed username, got %q", user.Username)
	}

	stored, err := st.UserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.ID != user.ID || len(stored.Wallets) != 0 {
		t.Fatalf("unexpected stored user %+v", stored)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "bob"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterValidatesUsername(t *testing.T) {
	svc := NewService(store.NewMemory())
	for _, name := range []string{"", "   ", "with space", "semi;colon", strings.Repeat("x", 65)} {
		if _, err := svc.Register(context.Background(), name); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("expected %q to be rejected, got %v", name, err)
		}
	}
}
