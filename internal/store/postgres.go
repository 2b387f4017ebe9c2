package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

const (
	uniqueViolation = "23505"
	usersPrimaryKey = "users_pkey"
)

const walletColumns = `id, user_id, currency, amount::text, created_at, updated_at`

// Postgres persists users, wallets and transactions in PostgreSQL. Amounts
// travel as text so numeric precision is never lost to floats.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres builds a Store backed by PostgreSQL.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// CreateUser inserts a user row.
func (s *Postgres) CreateUser(ctx context.Context, user domain.User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO users (id, username, created_at) VALUES ($1, $2, $3)`,
		userID, user.Username, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		if constraintName(err) == usersPrimaryKey {
			return ErrUserExists
		}
		return ErrUsernameTaken
	}
	return err
}

// UserByID fetches a user and the wallets attached to it.
func (s *Postgres) UserByID(ctx context.Context, id string) (domain.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return domain.User{}, ErrUserNotFound
	}
	return s.loadUser(ctx, s.db.QueryRow(ctx, `SELECT id, username, created_at FROM users WHERE id = $1`, userID))
}

// UserByUsername fetches a user by username together with its wallets.
func (s *Postgres) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.loadUser(ctx, s.db.QueryRow(ctx, `SELECT id, username, created_at FROM users WHERE username = $1`, username))
}

func (s *Postgres) loadUser(ctx context.Context, row pgx.Row) (domain.User, error) {
	var (
		id   uuid.UUID
		user domain.User
	)
	if err := row.Scan(&id, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = user.CreatedAt.UTC()

	rows, err := s.db.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return domain.User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return domain.User{}, err
		}
		user.Wallets = append(user.Wallets, w)
	}
	if err := rows.Err(); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CreateWallet inserts a wallet row. The (user_id, currency) unique index
// turns a duplicate into ErrWalletExists.
func (s *Postgres) CreateWallet(ctx context.Context, wallet domain.Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return fmt.Errorf("parse wallet id: %w", err)
	}
	userID, err := uuid.Parse(wallet.UserID)
	if err != nil {
		return ErrUserNotFound
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, amount, created_at, updated_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $5)`,
		walletID, userID, wallet.Currency, wallet.Amount.String(), wallet.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return ErrWalletExists
			case "23503":
				return ErrUserNotFound
			}
		}
		return err
	}
	return nil
}

// Wallet fetches a wallet by identifier.
func (s *Postgres) Wallet(ctx context.Context, id string) (domain.Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return domain.Wallet{}, ErrWalletNotFound
	}
	w, err := scanWallet(s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Wallet{}, ErrWalletNotFound
	}
	return w, err
}

// CommitTransfer applies the posting in one database transaction. Both wallet
// rows are locked in id order before the conditional debit, and the debit
// only succeeds while the source balance still covers the amount.
func (s *Postgres) CommitTransfer(ctx context.Context, p Posting) (Receipt, error) {
	sourceID, err := uuid.Parse(p.SourceWalletID)
	if err != nil {
		return Receipt{}, ErrWalletNotFound
	}
	txID, err := uuid.Parse(p.TransactionID)
	if err != nil {
		return Receipt{}, fmt.Errorf("parse transaction id: %w", err)
	}
	at := p.At.UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Receipt{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var (
		destID  uuid.UUID
		created bool
	)
	if p.CreateDestination {
		destID, created, err = ensureWallet(ctx, tx, p.Destination, at)
		if err != nil {
			return Receipt{}, err
		}
	} else {
		destID, err = uuid.Parse(p.Destination.ID)
		if err != nil {
			return Receipt{}, ErrWalletNotFound
		}
	}
	if destID == sourceID {
		return Receipt{}, ErrSameWallet
	}

	first, second := sourceID, destID
	if second.String() < first.String() {
		first, second = second, first
	}
	locked := make(map[uuid.UUID]domain.Wallet, 2)
	for _, id := range []uuid.UUID{first, second} {
		w, err := lockWallet(ctx, tx, id)
		if err != nil {
			return Receipt{}, err
		}
		locked[id] = w
	}
	if locked[sourceID].Currency != locked[destID].Currency {
		return Receipt{}, ErrCurrencyMismatch
	}

	amount := p.Amount.String()
	source, err := scanWallet(tx.QueryRow(ctx, `UPDATE wallets SET amount = amount - $1::numeric, updated_at = $3
        WHERE id = $2 AND amount >= $1::numeric
        RETURNING `+walletColumns, amount, sourceID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, ErrInsufficientFunds
		}
		return Receipt{}, err
	}
	destination, err := scanWallet(tx.QueryRow(ctx, `UPDATE wallets SET amount = amount + $1::numeric, updated_at = $3
        WHERE id = $2
        RETURNING `+walletColumns, amount, destID, at))
	if err != nil {
		return Receipt{}, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, source_wallet_id, destination_wallet_id, amount, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5)`, txID, sourceID, destID, amount, at); err != nil {
		return Receipt{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Receipt{}, err
	}

	return Receipt{
		Transaction: domain.Transaction{
			ID:                  txID.String(),
			SourceWalletID:      source.ID,
			DestinationWalletID: destination.ID,
			Amount:              p.Amount,
			CreatedAt:           at,
		},
		Source:             source,
		Destination:        destination,
		DestinationCreated: created,
	}, nil
}

// Transactions lists ledger entries touching the wallet, newest first.
func (s *Postgres) Transactions(ctx context.Context, walletID string, limit int) ([]domain.Transaction, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	rows, err := s.db.Query(ctx, `SELECT id, source_wallet_id, destination_wallet_id, amount::text, created_at
        FROM transactions
        WHERE source_wallet_id = $1 OR destination_wallet_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			txID, src, dst uuid.UUID
			amount         string
			t              domain.Transaction
		)
		if err := rows.Scan(&txID, &src, &dst, &amount, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		t.ID = txID.String()
		t.SourceWalletID = src.String()
		t.DestinationWalletID = dst.String()
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// ensureWallet inserts the destination wallet unless the owner already holds
// one in the currency, and reports whether this call created it.
func ensureWallet(ctx context.Context, tx pgx.Tx, w domain.Wallet, at time.Time) (uuid.UUID, bool, error) {
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("parse wallet id: %w", err)
	}
	userID, err := uuid.Parse(w.UserID)
	if err != nil {
		return uuid.Nil, false, ErrUserNotFound
	}
	tag, err := tx.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, amount, created_at, updated_at)
        VALUES ($1, $2, $3, 0, $4, $4)
        ON CONFLICT (user_id, currency) DO NOTHING`, walletID, userID, w.Currency, at)
	if err != nil {
		return uuid.Nil, false, err
	}
	if tag.RowsAffected() == 1 {
		return walletID, true, nil
	}
	var existing uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM wallets WHERE user_id = $1 AND currency = $2`, userID, w.Currency).Scan(&existing); err != nil {
		return uuid.Nil, false, err
	}
	return existing, false, nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Wallet, error) {
	w, err := scanWallet(tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Wallet{}, ErrWalletNotFound
	}
	return w, err
}

func scanWallet(row pgx.Row) (domain.Wallet, error) {
	var (
		w      domain.Wallet
		id     uuid.UUID
		userID uuid.UUID
		amount string
	)
	if err := row.Scan(&id, &userID, &w.Currency, &amount, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return domain.Wallet{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("parse amount: %w", err)
	}
	w.ID = id.String()
	w.UserID = userID.String()
	w.Amount = parsed
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
