// Package ledger owns wallet balances and transaction records. It
// guarantees that money is never created, destroyed or double-counted
// despite duplicate webhook deliveries, scheduler races and concurrent
// requests: every balance mutation happens inside one storage
// transaction, and terminal transaction states are re-checked under a
// row lock before any credit is applied.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kolo/internal/models"
	"kolo/internal/repositories"

	"github.com/google/uuid"
)

type service struct {
	repo    repositories.LedgerRepository
	gateway Gateway
	cache   WalletCache
	policy  VerifyPolicy
	now     func() time.Time
}

// NewService creates the ledger engine. The cache is optional; repo and
// gateway are not.
func NewService(repo repositories.LedgerRepository, gateway Gateway, cache WalletCache, policy VerifyPolicy) Service {
	if repo == nil {
		panic("repo is required")
	}
	if gateway == nil {
		panic("gateway is required")
	}
	if cache == nil {
		cache = noopWalletCache{}
	}
	if policy.Interval == 0 {
		policy.Interval = DefaultVerifyPolicy.Interval
	}
	if policy.Backoff == 0 {
		policy.Backoff = DefaultVerifyPolicy.Backoff
	}
	if policy.ThresholdAttempts == 0 {
		policy.ThresholdAttempts = DefaultVerifyPolicy.ThresholdAttempts
	}

	return &service{
		repo:    repo,
		gateway: gateway,
		cache:   cache,
		policy:  policy,
		now:     time.Now,
	}
}

func (s *service) GetWallet(ctx context.Context, user *models.User) (*models.Wallet, error) {
	if wallet, err := s.cache.GetWallet(ctx, user.ID); err == nil {
		return wallet, nil
	}

	wallet, err := s.repo.WalletByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.cache.CacheWallet(ctx, wallet); err != nil {
		log.Printf("ledger: failed to cache wallet %d: %v", wallet.ID, err)
	}
	return wallet, nil
}

func (s *service) InitializeDeposit(ctx context.Context, user *models.User, amount int64) (*DepositIntent, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.repo.WalletByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	reference, err := s.uniqueReference(ctx)
	if err != nil {
		return nil, err
	}

	// The pending row and the gateway call form one unit of work: if
	// the provider cannot be charged, no orphan pending row survives.
	var intent *DepositIntent
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		txn := &models.Transaction{
			UserID:    user.ID,
			WalletID:  wallet.ID,
			Reference: reference,
			Type:      models.TransactionTypeDeposit,
			Amount:    amount,
			Status:    models.TransactionStatusPending,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		auth, err := s.gateway.InitializeCharge(ctx, user.Email, amount, reference)
		if err != nil {
			return err
		}

		txn.Metadata = models.JSON(auth.Metadata)
		if err := tx.UpdateTransaction(ctx, txn); err != nil {
			return err
		}

		intent = &DepositIntent{
			Reference:        reference,
			AuthorizationURL: auth.AuthorizationURL,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *service) ProcessWebhook(ctx context.Context, signature string, rawBody []byte) error {
	if !s.gateway.ValidateWebhookSignature(rawBody, signature) {
		return ErrInvalidSignature
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return ErrMalformedPayload
	}
	if payload.Data.Reference == "" {
		return ErrMalformedPayload
	}

	_, err := s.VerifyAndCredit(ctx, payload.Data.Reference)
	return err
}

func (s *service) VerifyAndCredit(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, err := s.repo.TransactionByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	// Whichever of webhook, scheduler or manual refresh settled the
	// transaction first wins; everyone else is a no-op here.
	if txn.Status == models.TransactionStatusSuccess {
		return txn, nil
	}

	if _, err := s.attemptVerification(ctx, txn, true); err != nil {
		return nil, err
	}

	return s.repo.TransactionByReference(ctx, reference)
}

// attemptVerification runs one reconciliation round. It reports whether
// a verification round actually happened (it does not for terminal
// transactions or when pacing says the attempt is not yet due).
//
// The gateway call never runs inside an open storage transaction; the
// outcome is applied afterwards in its own unit of work, with the
// transaction row re-checked under a lock so two concurrent
// reconcilers cannot both credit the wallet. The in-memory txn passed
// in may be stale, so it is never written back whole: the attempt
// stamp is a conditional update and the outcome only touches the
// freshly locked row.
func (s *service) attemptVerification(ctx context.Context, txn *models.Transaction, force bool) (bool, error) {
	if txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	if !force && !s.attemptDue(txn) {
		return false, nil
	}

	// Stamp the attempt before calling out so a crash mid-verify still
	// counts toward backoff pacing. Zero rows means a racing reconciler
	// settled the transaction between our read and now; stand down.
	stamped, err := s.repo.StampVerificationAttempt(ctx, txn.Reference, s.now())
	if err != nil {
		return false, err
	}
	if !stamped {
		return false, nil
	}

	verification, err := s.gateway.VerifyCharge(ctx, txn.Reference)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}

	credited := false
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		locked, err := tx.TransactionByReferenceForUpdate(ctx, txn.Reference)
		if err != nil {
			return err
		}
		if locked.Status != models.TransactionStatusPending {
			// A racing reconciler settled it first; whatever outcome we
			// read must not overwrite a terminal state.
			return nil
		}

		locked.Metadata = models.JSON(verification.Metadata)
		switch verification.Status {
		case models.TransactionStatusSuccess:
			if err := tx.CreditWallet(ctx, locked.WalletID, locked.Amount); err != nil {
				return err
			}
			locked.Status = models.TransactionStatusSuccess
			credited = true
		case models.TransactionStatusFailed:
			locked.Status = models.TransactionStatusFailed
		default:
			// Ambiguous provider state: keep the metadata, stay
			// pending for a future sweep.
		}
		return tx.UpdateTransaction(ctx, locked)
	})
	if err != nil {
		return false, err
	}
	if credited {
		s.invalidateWallet(ctx, txn.UserID)
	}

	return true, nil
}

func (s *service) attemptDue(txn *models.Transaction) bool {
	if txn.LastVerificationAttempt == nil {
		return true
	}
	wait := s.policy.waitFor(txn.VerificationAttempts)
	return s.now().Sub(*txn.LastVerificationAttempt) >= wait
}

func (s *service) Transfer(ctx context.Context, sender *models.Wallet, recipientNumber string, amount int64, reference string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	recipient, err := s.repo.WalletByNumber(ctx, recipientNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to get recipient wallet: %w", err)
	}

	if recipient.ID == sender.ID {
		return nil, ErrSelfTransfer
	}

	if reference == "" {
		reference, err = s.uniqueReference(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := s.repo.TransactionByReference(ctx, reference); err == nil {
			return nil, ErrDuplicateReference
		} else if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, fmt.Errorf("failed to check reference: %w", err)
		}
	}

	if sender.Balance < amount {
		return nil, ErrInsufficientBalance
	}

	var txn *models.Transaction
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		// Lock both wallets in id order so opposing transfers cannot
		// deadlock, and re-check the balance under the lock: the
		// pre-check above may have read a stale balance.
		firstID, secondID := sender.ID, recipient.ID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		if _, err := tx.WalletByIDForUpdate(ctx, firstID); err != nil {
			return err
		}
		if _, err := tx.WalletByIDForUpdate(ctx, secondID); err != nil {
			return err
		}

		if err := tx.DebitWallet(ctx, sender.ID, amount); err != nil {
			return err
		}
		if err := tx.CreditWallet(ctx, recipient.ID, amount); err != nil {
			return err
		}

		txn = &models.Transaction{
			UserID:    sender.UserID,
			WalletID:  sender.ID,
			Reference: reference,
			Type:      models.TransactionTypeTransfer,
			Amount:    amount,
			Status:    models.TransactionStatusSuccess,
			Metadata: models.JSON{
				"recipient_wallet_id":     recipient.ID,
				"recipient_wallet_number": recipient.WalletNumber,
			},
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInsufficientFunds) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.invalidateWallet(ctx, sender.UserID)
	s.invalidateWallet(ctx, recipient.UserID)
	return txn, nil
}

func (s *service) GetTransactionStatus(ctx context.Context, reference string, user *models.User, refresh bool) (*models.Transaction, error) {
	txn, err := s.repo.TransactionByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn.UserID != user.ID {
		// Not-found also masks other users' transactions.
		return nil, ErrTransactionNotFound
	}

	if refresh && txn.Status == models.TransactionStatusPending {
		if _, err := s.attemptVerification(ctx, txn, true); err != nil {
			return nil, err
		}
		return s.repo.TransactionByReference(ctx, reference)
	}
	return txn, nil
}

func (s *service) ListTransactions(ctx context.Context, wallet *models.Wallet) ([]models.Transaction, error) {
	return s.repo.TransactionsForWallet(ctx, wallet.ID)
}

func (s *service) RetryPendingTransactions(ctx context.Context) (int, error) {
	pending, err := s.repo.PendingTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	processed := 0
	for i := range pending {
		txn := &pending[i]
		updated, err := s.attemptVerification(ctx, txn, false)
		if err != nil {
			// One stuck transaction must not stop the sweep.
			log.Printf("ledger: retry of %s failed: %v", txn.Reference, err)
			continue
		}
		if updated {
			processed++
		}
	}
	return processed, nil
}

// uniqueReference generates a reference guaranteed unused among
// existing transactions, regenerating on the (vanishing) chance of a
// collision.
func (s *service) uniqueReference(ctx context.Context) (string, error) {
	for {
		reference := strings.ReplaceAll(uuid.NewString(), "-", "")
		_, err := s.repo.TransactionByReference(ctx, reference)
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return reference, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check reference: %w", err)
		}
	}
}

func (s *service) invalidateWallet(ctx context.Context, userID uint) {
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		log.Printf("ledger: failed to invalidate wallet cache for user %d: %v", userID, err)
	}
}
