package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/catalog"
	"github.com/walletd/walletd/internal/domain"
	"github.com/walletd/walletd/internal/logging"
	"github.com/walletd/walletd/internal/promotion"
	"github.com/walletd/walletd/internal/store"
)

// ErrNotOwner indicates the caller asked for a wallet owned by someone else.
var ErrNotOwner = errors.New("wallet belongs to another user")

// Service provisions wallets and serves wallet reads.
type Service struct {
	store   store.Store
	catalog catalog.Catalog
	bonus   promotion.Policy
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds a wallet service instance.
func NewService(st store.Store, cat catalog.Catalog, bonus promotion.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{store: st, catalog: cat, bonus: bonus, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CreateWallet opens a wallet for the user in currency, seeded with the bonus
// amount for that currency. Business-rule rejections come back as a failed
// CreateResult with a nil error; the error is reserved for store failures.
func (s *Service) CreateWallet(ctx context.Context, userID, currency string) (CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return CreateResult{}, err
	}
	currency = domain.NormalizeCurrency(currency)

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return failed(FailureUnknownUser), nil
		}
		return CreateResult{}, fmt.Errorf("load user: %w", err)
	}

	if !catalog.Contains(ctx, s.catalog, currency) {
		return failed(FailureInvalidCurrency), nil
	}

	if _, exists := user.WalletFor(currency); exists {
		return failed(FailureWalletExists), nil
	}

	w, err := s.provision(ctx, user.ID, currency, s.bonus.GetDefaultAmount(ctx, currency))
	if err != nil {
		if errors.Is(err, store.ErrWalletExists) {
			return failed(FailureWalletExists), nil
		}
		return CreateResult{}, err
	}

	s.logger.InfoContext(ctx, "wallet created",
		slog.String("user_id", user.ID),
		slog.String("wallet_id", w.ID),
		slog.String("currency", w.Currency),
		slog.String("amount", w.Amount.String()),
	)
	return CreateResult{Successful: true, Wallet: w}, nil
}

func (s *Service) provision(ctx context.Context, userID, currency string, amount decimal.Decimal) (domain.Wallet, error) {
	w := New(userID, currency, amount, s.now())
	if err := s.store.CreateWallet(ctx, w); err != nil {
		if errors.Is(err, store.ErrWalletExists) {
			return domain.Wallet{}, err
		}
		return domain.Wallet{}, fmt.Errorf("insert wallet: %w", err)
	}
	return w, nil
}

// List returns every wallet the user holds.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Wallet, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Wallets, nil
}

// Get returns one of the user's wallets.
func (s *Service) Get(ctx context.Context, userID, walletID string) (domain.Wallet, error) {
	w, err := s.store.Wallet(ctx, walletID)
	if err != nil {
		return domain.Wallet{}, err
	}
	if w.UserID != userID {
		return domain.Wallet{}, ErrNotOwner
	}
	return w, nil
}

// Transactions returns the ledger entries of one of the user's wallets.
func (s *Service) Transactions(ctx context.Context, userID, walletID string, limit int) ([]domain.Transaction, error) {
	if _, err := s.Get(ctx, userID, walletID); err != nil {
		return nil, err
	}
	return s.store.Transactions(ctx, walletID, limit)
}
