package ledger

import (
	"context"

	"kolo/internal/models"
	"kolo/internal/services/paystack"
)

// Service is the transaction/ledger engine. Every entry point receives
// an already-resolved user identity; credential handling lives at the
// boundary, not here.
type Service interface {
	// InitializeDeposit persists a pending transaction and starts a
	// charge with the payment provider. The pending row and the
	// gateway call succeed or fail as one unit.
	InitializeDeposit(ctx context.Context, user *models.User, amount int64) (*DepositIntent, error)

	// ProcessWebhook authenticates and parses a provider webhook, then
	// reconciles the referenced transaction.
	ProcessWebhook(ctx context.Context, signature string, rawBody []byte) error

	// VerifyAndCredit reconciles one transaction against the provider.
	// Already-successful transactions return immediately; this is the
	// idempotency guard against duplicate webhook delivery and
	// webhook/scheduler races.
	VerifyAndCredit(ctx context.Context, reference string) (*models.Transaction, error)

	// Transfer moves funds between wallets synchronously. Debit, credit
	// and the transaction record are all-or-nothing.
	Transfer(ctx context.Context, sender *models.Wallet, recipientNumber string, amount int64, reference string) (*models.Transaction, error)

	GetWallet(ctx context.Context, user *models.User) (*models.Wallet, error)
	GetTransactionStatus(ctx context.Context, reference string, user *models.User, refresh bool) (*models.Transaction, error)
	ListTransactions(ctx context.Context, wallet *models.Wallet) ([]models.Transaction, error)

	// RetryPendingTransactions sweeps pending deposits and reconciles
	// the ones whose next attempt is due. Returns how many transactions
	// actually went through a verification round.
	RetryPendingTransactions(ctx context.Context) (int, error)
}

// Gateway is the slice of the payment provider the engine drives.
type Gateway interface {
	InitializeCharge(ctx context.Context, email string, amount int64, reference string) (*paystack.ChargeAuthorization, error)
	VerifyCharge(ctx context.Context, reference string) (*paystack.ChargeVerification, error)
	ValidateWebhookSignature(body []byte, signature string) bool
}

// WalletCache serves cached wallet views and is invalidated after every
// balance mutation.
type WalletCache interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint) error
}
