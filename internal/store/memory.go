package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

type walletKey struct {
	userID   string
	currency string
}

// Memory is a mutex-guarded Store used by tests and local development.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	usernames    map[string]string
	wallets      map[string]domain.Wallet
	byOwner      map[walletKey]string
	ownerOrder   map[string][]string
	transactions []domain.Transaction
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]domain.User),
		usernames:  make(map[string]string),
		wallets:    make(map[string]domain.Wallet),
		byOwner:    make(map[walletKey]string),
		ownerOrder: make(map[string][]string),
	}
}

func (m *Memory) CreateUser(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.ID]; exists {
		return ErrUserExists
	}
	if _, exists := m.usernames[user.Username]; exists {
		return ErrUsernameTaken
	}
	user.Wallets = nil
	m.users[user.ID] = user
	m.usernames[user.Username] = user.ID
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userLocked(id)
}

func (m *Memory) UserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[username]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return m.userLocked(id)
}

func (m *Memory) userLocked(id string) (domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	ids := m.ownerOrder[id]
	user.Wallets = make([]domain.Wallet, 0, len(ids))
	for _, walletID := range ids {
		user.Wallets = append(user.Wallets, m.wallets[walletID])
	}
	return user, nil
}

func (m *Memory) CreateWallet(_ context.Context, wallet domain.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[wallet.UserID]; !ok {
		return ErrUserNotFound
	}
	if _, exists := m.byOwner[walletKey{wallet.UserID, wallet.Currency}]; exists {
		return ErrWalletExists
	}
	m.insertWalletLocked(wallet)
	return nil
}

func (m *Memory) insertWalletLocked(wallet domain.Wallet) {
	m.wallets[wallet.ID] = wallet
	m.byOwner[walletKey{wallet.UserID, wallet.Currency}] = wallet.ID
	m.ownerOrder[wallet.UserID] = append(m.ownerOrder[wallet.UserID], wallet.ID)
}

func (m *Memory) Wallet(_ context.Context, id string) (domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wallet, ok := m.wallets[id]
	if !ok {
		return domain.Wallet{}, ErrWalletNotFound
	}
	return wallet, nil
}

// CommitTransfer validates the whole posting before touching any state, so a
// rejected posting leaves the store unchanged.
func (m *Memory) CommitTransfer(_ context.Context, p Posting) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := m.wallets[p.SourceWalletID]
	if !ok {
		return Receipt{}, ErrWalletNotFound
	}

	var (
		destination domain.Wallet
		created     bool
	)
	if p.CreateDestination {
		if _, ok := m.users[p.Destination.UserID]; !ok {
			return Receipt{}, ErrUserNotFound
		}
		if existingID, exists := m.byOwner[walletKey{p.Destination.UserID, p.Destination.Currency}]; exists {
			destination = m.wallets[existingID]
		} else {
			destination = p.Destination
			destination.Amount = decimal.Zero
			destination.CreatedAt = p.At
			destination.UpdatedAt = p.At
			created = true
		}
	} else {
		destination, ok = m.wallets[p.Destination.ID]
		if !ok {
			return Receipt{}, ErrWalletNotFound
		}
	}

	if destination.ID == source.ID {
		return Receipt{}, ErrSameWallet
	}
	if source.Currency != destination.Currency {
		return Receipt{}, ErrCurrencyMismatch
	}
	if source.Amount.LessThan(p.Amount) {
		return Receipt{}, ErrInsufficientFunds
	}

	if created {
		m.insertWalletLocked(destination)
	}

	source.Amount = source.Amount.Sub(p.Amount)
	source.UpdatedAt = p.At
	m.wallets[source.ID] = source
	destination.Amount = destination.Amount.Add(p.Amount)
	destination.UpdatedAt = p.At
	m.wallets[destination.ID] = destination

	tx := domain.Transaction{
		ID:                  p.TransactionID,
		SourceWalletID:      source.ID,
		DestinationWalletID: destination.ID,
		Amount:              p.Amount,
		CreatedAt:           p.At,
	}
	m.transactions = append(m.transactions, tx)

	return Receipt{Transaction: tx, Source: source, Destination: destination, DestinationCreated: created}, nil
}

func (m *Memory) Transactions(_ context.Context, walletID string, limit int) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.wallets[walletID]; !ok {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	var out []domain.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		tx := m.transactions[i]
		if tx.SourceWalletID != walletID && tx.DestinationWalletID != walletID {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
