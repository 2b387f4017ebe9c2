package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when creating a user whose username is in use.
	ErrUsernameTaken = errors.New("username taken")
	// ErrUserExists is returned when creating a user whose id is already stored.
	ErrUserExists = errors.New("user already exists")
	// ErrWalletNotFound is returned when a wallet identifier does not resolve.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrWalletExists is returned when the user already holds a wallet in the currency.
	ErrWalletExists = errors.New("wallet already exists")
	// ErrInsufficientFunds is returned when a debit would take a wallet below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrCurrencyMismatch is returned when a posting spans two currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrSameWallet is returned when a posting debits and credits one wallet.
	ErrSameWallet = errors.New("source and destination wallet are the same")
)

// Posting describes one transfer to be committed atomically.
//
// When CreateDestination is set, Destination.ID, UserID and Currency describe
// a wallet to insert at zero balance before the credit. If the user already
// holds a wallet in that currency the insert is skipped and the existing
// wallet is credited instead.
type Posting struct {
	TransactionID     string
	SourceWalletID    string
	Destination       domain.Wallet
	CreateDestination bool
	Amount            decimal.Decimal
	At                time.Time
}

// Receipt is the committed result of a Posting.
type Receipt struct {
	Transaction        domain.Transaction
	Source             domain.Wallet
	Destination        domain.Wallet
	DestinationCreated bool
}

// DefaultTransactionLimit caps Transactions when the caller passes limit <= 0.
const DefaultTransactionLimit = 50

// Store is the persistence boundary for users, wallets and the ledger.
// Every method is a single commit.
type Store interface {
	CreateUser(ctx context.Context, user domain.User) error
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateWallet(ctx context.Context, wallet domain.Wallet) error
	Wallet(ctx context.Context, id string) (domain.Wallet, error)
	CommitTransfer(ctx context.Context, posting Posting) (Receipt, error)
	// Transactions returns at most limit entries touching the wallet, newest
	// first. A limit <= 0 means DefaultTransactionLimit.
	Transactions(ctx context.Context, walletID string, limit int) ([]domain.Transaction, error)
}
