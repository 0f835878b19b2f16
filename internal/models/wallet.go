package models

import "time"

// Wallet holds a single user's custodial balance in minor currency
// units. Exactly one wallet exists per user; the balance only moves
// through a successful deposit credit or a transfer debit/credit pair.
type Wallet struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	WalletNumber string    `gorm:"uniqueIndex;size:20;not null" json:"wallet_number"`
	Balance      int64     `gorm:"not null;default:0" json:"balance"`
	Currency     string    `gorm:"size:3;default:'NGN'" json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
}
