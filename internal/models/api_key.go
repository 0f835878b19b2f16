package models

import "time"

// APIKey grants programmatic access scoped to a permission subset.
// Only a salted hash of the key material is stored.
type APIKey struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	KeyHash     string     `gorm:"size:255;not null" json:"-"`
	Permissions StringList `gorm:"type:jsonb" json:"permissions"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	Revoked     bool       `gorm:"not null;default:false" json:"revoked"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Active reports whether the key can still authenticate at the given time.
func (k *APIKey) Active(now time.Time) bool {
	return !k.Revoked && k.ExpiresAt.After(now)
}

// HasPermission checks the key's stored permission subset.
func (k *APIKey) HasPermission(p Permission) bool {
	for _, raw := range k.Permissions {
		if Permission(raw) == p {
			return true
		}
	}
	return false
}
