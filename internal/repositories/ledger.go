package repositories

import (
	"context"
	"time"

	"kolo/internal/models"
)

// LedgerRepository is the storage boundary of the ledger engine.
// Methods suffixed ForUpdate take row locks and are only meaningful
// inside ExecuteInTransaction; the callback form is the single unit of
// work the engine uses for every balance-affecting write.
type LedgerRepository interface {
	WalletByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	WalletByNumber(ctx context.Context, number string) (*models.Wallet, error)
	WalletByIDForUpdate(ctx context.Context, id uint) (*models.Wallet, error)
	CreditWallet(ctx context.Context, walletID uint, amount int64) error
	DebitWallet(ctx context.Context, walletID uint, amount int64) error

	TransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	TransactionByReferenceForUpdate(ctx context.Context, reference string) (*models.Transaction, error)
	PendingTransactions(ctx context.Context) ([]models.Transaction, error)
	TransactionsForWallet(ctx context.Context, walletID uint) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error

	// StampVerificationAttempt counts one verification round against a
	// transaction that is still pending. It reports false when the
	// transaction was settled in the meantime, so a racing reconciler
	// stands down instead of writing over a terminal state.
	StampVerificationAttempt(ctx context.Context, reference string, at time.Time) (bool, error)

	ExecuteInTransaction(ctx context.Context, fn func(tx LedgerRepository) error) error
}
