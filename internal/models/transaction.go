package models

import "time"

// Transaction types
const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeTransfer = "transfer"
)

// Transaction statuses. A pending transaction may move to success or
// failed; both are terminal and never revisited.
const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Transaction records one balance-affecting event. The reference is
// unique for the lifetime of the system: it deduplicates requests and
// correlates asynchronous gateway confirmations back to the original
// deposit. UserID is denormalized from the wallet so authorization
// checks need no join.
type Transaction struct {
	ID                      uint       `gorm:"primarykey" json:"id"`
	UserID                  uint       `gorm:"index;not null" json:"user_id"`
	WalletID                uint       `gorm:"index;not null" json:"wallet_id"`
	Reference               string     `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	Type                    string     `gorm:"not null" json:"type"`
	Amount                  int64      `gorm:"not null" json:"amount"`
	Status                  string     `gorm:"not null;default:'pending'" json:"status"`
	Metadata                JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	VerificationAttempts    int        `gorm:"not null;default:0" json:"verification_attempts"`
	LastVerificationAttempt *time.Time `json:"last_verification_attempt,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Terminal reports whether the transaction can never change again.
func (t *Transaction) Terminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}
