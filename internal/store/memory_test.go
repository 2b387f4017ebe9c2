package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

func seedUser(t *testing.T, m *Memory, username string) domain.User {
	t.Helper()
	u := domain.User{ID: uuid.NewString(), Username: username, CreatedAt: time.Now().UTC()}
	if err := m.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func seedWallet(t *testing.T, m *Memory, userID, currency string, amount int64) domain.Wallet {
	t.Helper()
	w := domain.Wallet{ID: uuid.NewString(), UserID: userID, Currency: currency, Amount: decimal.NewFromInt(amount), CreatedAt: time.Now().UTC()}
	if err := m.CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

func posting(src string, dst domain.Wallet, amount int64) Posting {
	return Posting{
		TransactionID:  uuid.NewString(),
		SourceWalletID: src,
		Destination:    dst,
		Amount:         decimal.NewFromInt(amount),
		At:             time.Now().UTC(),
	}
}

func TestMemoryCommitTransferMaintainsBalance(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 10_000)
	wb := seedWallet(t, m, b.ID, "EC", 0)

	res, err := m.CommitTransfer(ctx, posting(wa.ID, wb, 1_500))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if !res.Source.Amount.Equal(decimal.NewFromInt(8_500)) {
		t.Fatalf("expected source balance 8500, got %s", res.Source.Amount)
	}
	if !res.Destination.Amount.Equal(decimal.NewFromInt(1_500)) {
		t.Fatalf("expected destination balance 1500, got %s", res.Destination.Amount)
	}
	if res.DestinationCreated {
		t.Fatalf("existing destination reported as created")
	}

	txs, err := m.Transactions(ctx, wb.ID, 0)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != res.Transaction.ID {
		t.Fatalf("expected ledger entry %s, got %+v", res.Transaction.ID, txs)
	}
}

func TestMemoryCommitTransferRejectsOverdraft(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 100)

	p := posting(wa.ID, domain.Wallet{ID: uuid.NewString(), UserID: b.ID, Currency: "EC"}, 101)
	p.CreateDestination = true
	if _, err := m.CommitTransfer(ctx, p); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	user, _ := m.UserByID(ctx, b.ID)
	if len(user.Wallets) != 0 {
		t.Fatalf("rejected posting left a destination wallet behind")
	}
	txs, _ := m.Transactions(ctx, wa.ID, 0)
	if len(txs) != 0 {
		t.Fatalf("rejected posting wrote a ledger entry")
	}
	got, _ := m.Wallet(ctx, wa.ID)
	if !got.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("source balance changed to %s", got.Amount)
	}
}

func TestMemoryCommitTransferLazyDestinationIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 100)

	first := posting(wa.ID, domain.Wallet{ID: uuid.NewString(), UserID: b.ID, Currency: "EC"}, 10)
	first.CreateDestination = true
	second := posting(wa.ID, domain.Wallet{ID: uuid.NewString(), UserID: b.ID, Currency: "EC"}, 5)
	second.CreateDestination = true

	r1, err := m.CommitTransfer(ctx, first)
	if err != nil || !r1.DestinationCreated {
		t.Fatalf("first commit: created=%v err=%v", r1.DestinationCreated, err)
	}
	if !r1.Destination.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("lazily created wallet must start at zero, got %s after credit of 10", r1.Destination.Amount)
	}
	r2, err := m.CommitTransfer(ctx, second)
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if r2.DestinationCreated || r2.Destination.ID != r1.Destination.ID {
		t.Fatalf("expected second posting to credit existing wallet %s, got %s", r1.Destination.ID, r2.Destination.ID)
	}

	user, _ := m.UserByID(ctx, b.ID)
	if len(user.Wallets) != 1 {
		t.Fatalf("expected a single EC wallet, got %d", len(user.Wallets))
	}
}

func TestMemoryCommitTransferCurrencyAndSelfChecks(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 100)
	wb := seedWallet(t, m, b.ID, "EUR", 0)

	if _, err := m.CommitTransfer(ctx, posting(wa.ID, wb, 1)); err != ErrCurrencyMismatch {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if _, err := m.CommitTransfer(ctx, posting(wa.ID, wa, 1)); err != ErrSameWallet {
		t.Fatalf("expected same wallet error, got %v", err)
	}
}

func TestMemoryUniqueness(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	seedWallet(t, m, a.ID, "EC", 0)

	dup := domain.Wallet{ID: uuid.NewString(), UserID: a.ID, Currency: "EC"}
	if err := m.CreateWallet(ctx, dup); err != ErrWalletExists {
		t.Fatalf("expected ErrWalletExists, got %v", err)
	}
	if err := m.CreateUser(ctx, domain.User{ID: uuid.NewString(), Username: "a"}); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := m.CreateUser(ctx, domain.User{ID: a.ID, Username: "a2"}); err != ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if u, err := m.UserByID(ctx, a.ID); err != nil || u.Username != "a" {
		t.Fatalf("expected original user to survive, got %+v (%v)", u, err)
	}
	if _, err := m.UserByUsername(ctx, "a2"); err != ErrUserNotFound {
		t.Fatalf("expected rejected username to stay free, got %v", err)
	}
	orphan := domain.Wallet{ID: uuid.NewString(), UserID: uuid.NewString(), Currency: "EC"}
	if err := m.CreateWallet(ctx, orphan); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMemoryTransactionsNewestFirstWithLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 100)
	wb := seedWallet(t, m, b.ID, "EC", 0)

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := m.CommitTransfer(ctx, posting(wa.ID, wb, 1))
		if err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
		ids = append(ids, r.Transaction.ID)
	}

	txs, err := m.Transactions(ctx, wa.ID, 2)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != ids[2] || txs[1].ID != ids[1] {
		t.Fatalf("unexpected history order: %+v", txs)
	}
	if _, err := m.Transactions(ctx, uuid.NewString(), 0); err != ErrWalletNotFound {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestMemoryTransactionsDefaultLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 1_000)
	wb := seedWallet(t, m, b.ID, "EC", 0)

	for i := 0; i < DefaultTransactionLimit+5; i++ {
		if _, err := m.CommitTransfer(ctx, posting(wa.ID, wb, 1)); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	for _, limit := range []int{0, -1} {
		txs, err := m.Transactions(ctx, wb.ID, limit)
		if err != nil {
			t.Fatalf("transactions: %v", err)
		}
		if len(txs) != DefaultTransactionLimit {
			t.Fatalf("limit %d: expected %d entries, got %d", limit, DefaultTransactionLimit, len(txs))
		}
	}
}

func TestMemoryConcurrentTransfers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := seedUser(t, m, "a")
	b := seedUser(t, m, "b")
	wa := seedWallet(t, m, a.ID, "EC", 100_000)
	wb := seedWallet(t, m, b.ID, "EC", 0)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src, dst := wa.ID, wb
			if i%2 == 1 {
				src, dst = wb.ID, wa
			}
			if _, err := m.CommitTransfer(ctx, posting(src, dst, 500)); err != nil && err != ErrInsufficientFunds {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	ga, _ := m.Wallet(ctx, wa.ID)
	gb, _ := m.Wallet(ctx, wb.ID)
	if total := ga.Amount.Add(gb.Amount); !total.Equal(decimal.NewFromInt(100_000)) {
		t.Fatalf("ledger not balanced after concurrency, total=%s", total)
	}
	if ga.Amount.IsNegative() || gb.Amount.IsNegative() {
		t.Fatalf("negative balance: a=%s b=%s", ga.Amount, gb.Amount)
	}
}
