package repositories

import (
	"context"
	"errors"
	"fmt"

	"kolo/internal/models"

	"gorm.io/gorm"
)

// APIKeyRepository persists API keys for the access boundary.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	Update(ctx context.Context, key *models.APIKey) error
	ByID(ctx context.Context, id uint) (*models.APIKey, error)
	UnrevokedByUser(ctx context.Context, userID uint) ([]models.APIKey, error)
	Unrevoked(ctx context.Context) ([]models.APIKey, error)
}

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *apiKeyRepository) Update(ctx context.Context, key *models.APIKey) error {
	if err := r.db.WithContext(ctx).Save(key).Error; err != nil {
		return fmt.Errorf("failed to update api key: %w", err)
	}
	return nil
}

func (r *apiKeyRepository) ByID(ctx context.Context, id uint) (*models.APIKey, error) {
	var key models.APIKey
	if err := r.db.WithContext(ctx).First(&key, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return &key, nil
}

func (r *apiKeyRepository) UnrevokedByUser(ctx context.Context, userID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ?", userID, false).
		Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

func (r *apiKeyRepository) Unrevoked(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.WithContext(ctx).
		Where("revoked = ?", false).
		Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}
