package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
	"github.com/walletd/walletd/internal/logging"
	"github.com/walletd/walletd/internal/notification"
	"github.com/walletd/walletd/internal/store"
	"github.com/walletd/walletd/internal/wallet"
)

// notifyTimeout bounds how long a committed transfer waits on the notifier.
const notifyTimeout = 500 * time.Millisecond

// Service moves value between users' wallets of the same currency.
type Service struct {
	store         store.Store
	notifier      notification.Notifier
	logger        *slog.Logger
	now           func() time.Time
	notifyTimeout time.Duration
}

// NewService constructs a transfer service. notifier may be nil.
func NewService(st store.Store, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:         st,
		notifier:      notifier,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		notifyTimeout: notifyTimeout,
	}
}

// MakeTransfer validates the request in a fixed order and, if every check
// passes, commits the debit, the credit and the ledger entry as one unit.
// A recipient without a wallet in the currency gets one opened at zero.
//
// Business-rule rejections are returned as a failed Result with a nil error.
// A non-nil error means the store failed or ctx was cancelled before the
// commit started; in both cases nothing was written.
func (s *Service) MakeTransfer(ctx context.Context, in Input) (Result, error) {
	if !in.Amount.IsPositive() {
		return failed(FailureInvalidAmount), nil
	}
	currency := domain.NormalizeCurrency(in.Currency)

	sender, err := s.store.UserByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return failed(FailureUnknownUser), nil
		}
		return Result{}, fmt.Errorf("load sender: %w", err)
	}

	source, ok := sender.WalletFor(currency)
	if !ok {
		return failed(FailureMissingSourceWallet), nil
	}

	recipient, err := s.store.UserByUsername(ctx, strings.TrimSpace(in.DestinationUsername))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return failed(FailureMissingDestinationUser), nil
		}
		return Result{}, fmt.Errorf("load recipient: %w", err)
	}
	if recipient.ID == sender.ID {
		return failed(FailureSameWallet), nil
	}

	if source.Amount.LessThan(in.Amount) {
		return failed(FailureInsufficientFunds), nil
	}

	now := s.now()
	posting := store.Posting{
		TransactionID:  uuid.NewString(),
		SourceWalletID: source.ID,
		Amount:         in.Amount,
		At:             now,
	}
	if destination, ok := recipient.WalletFor(currency); ok {
		posting.Destination = destination
	} else {
		posting.Destination = wallet.New(recipient.ID, currency, decimal.Zero, now)
		posting.CreateDestination = true
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Once the commit starts it must finish, so cancellation is detached here.
	commitCtx := context.WithoutCancel(ctx)
	receipt, err := s.store.CommitTransfer(commitCtx, posting)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientFunds):
			return failed(FailureInsufficientFunds), nil
		case errors.Is(err, store.ErrSameWallet):
			return failed(FailureSameWallet), nil
		}
		s.logger.ErrorContext(ctx, "transfer commit failed",
			slog.String("user_id", sender.ID),
			slog.String("source_wallet_id", source.ID),
			slog.Any("error", err),
		)
		return Result{}, fmt.Errorf("commit transfer: %w", err)
	}

	outcome := OutcomeSuccess
	if receipt.DestinationCreated {
		outcome = OutcomeSuccessNewDestinationWallet
	}

	s.logger.InfoContext(ctx, "transfer completed",
		slog.String("transaction_id", receipt.Transaction.ID),
		slog.String("source_wallet_id", receipt.Source.ID),
		slog.String("destination_wallet_id", receipt.Destination.ID),
		slog.String("currency", currency),
		slog.String("amount", in.Amount.String()),
		slog.String("outcome", string(outcome)),
	)
	s.notify(commitCtx, sender, recipient, receipt, currency)

	return Result{
		Successful:  true,
		Outcome:     outcome,
		Transaction: receipt.Transaction,
		Source:      receipt.Source,
		Destination: receipt.Destination,
	}, nil
}

func (s *Service) notify(ctx context.Context, sender, recipient domain.User, receipt store.Receipt, currency string) {
	if s.notifier == nil {
		return
	}
	msg := notification.Message{
		Kind:       notification.KindTransferReceived,
		Recipient:  recipient.ID,
		Reference:  receipt.Transaction.ID,
		Body:       fmt.Sprintf("You received %s %s from %s", receipt.Transaction.Amount, currency, sender.Username),
		OccurredAt: receipt.Transaction.CreatedAt,
	}
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "transfer notification failed",
			slog.String("transaction_id", receipt.Transaction.ID),
			slog.Any("error", err),
		)
	}
}
