package repositories

import (
	"context"
	"errors"
	"fmt"

	"kolo/internal/models"

	"gorm.io/gorm"
)

// UserRepository looks up users for the identity boundary. Onboarding
// creates the user and their wallet in one transaction so a user can
// never exist without a wallet.
type UserRepository interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
	ByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	WalletNumberTaken(ctx context.Context, number string) (bool, error)
	CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Wallet) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) WalletNumberTaken(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("wallet_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wallet number: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		wallet.UserID = user.ID
		if err := tx.Create(wallet).Error; err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		return nil
	})
}
