package ledger

import (
	"context"
	"errors"
	"time"

	"kolo/internal/models"
)

var errNoCache = errors.New("wallet cache disabled")

// DepositIntent is returned to the caller after deposit initialization.
type DepositIntent struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// VerifyPolicy paces reconciliation attempts: re-verify every Interval
// until ThresholdAttempts, then switch to the longer Backoff so stuck
// transactions stop hammering the provider.
type VerifyPolicy struct {
	Interval          time.Duration
	Backoff           time.Duration
	ThresholdAttempts int
}

// DefaultVerifyPolicy matches the scheduler's default cadence.
var DefaultVerifyPolicy = VerifyPolicy{
	Interval:          time.Minute,
	Backoff:           15 * time.Minute,
	ThresholdAttempts: 5,
}

func (p VerifyPolicy) waitFor(attempts int) time.Duration {
	if attempts >= p.ThresholdAttempts {
		return p.Backoff
	}
	return p.Interval
}

// noopWalletCache stands in when no cache is wired. Lookups always
// miss so callers fall through to storage.
type noopWalletCache struct{}

func (noopWalletCache) GetWallet(context.Context, uint) (*models.Wallet, error) {
	return nil, errNoCache
}
func (noopWalletCache) CacheWallet(context.Context, *models.Wallet) error { return nil }
func (noopWalletCache) InvalidateWallet(context.Context, uint) error      { return nil }
