package models

import "time"

// User is created on first successful sign-in through the identity
// boundary. No credentials are stored here; authentication belongs to
// the external provider.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	GoogleID  string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	Wallet *Wallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}
