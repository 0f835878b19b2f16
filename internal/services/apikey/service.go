// Package apikey issues and authenticates programmatic access keys.
// Keys carry an explicit subset of the closed permission set and are
// stored only as salted hashes.
package apikey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kolo/internal/models"
	"kolo/internal/repositories"
	"kolo/internal/utils"
)

// Service errors
var (
	ErrInvalidKey        = errors.New("invalid or expired api key")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrKeyLimitReached   = errors.New("maximum active api keys reached")
	ErrKeyNotFound       = errors.New("api key not found")
	ErrKeyRevoked        = errors.New("api key revoked")
	ErrKeyNotExpired     = errors.New("api key not expired")
	ErrInvalidExpiry     = errors.New("invalid expiry option")
	ErrInvalidPermission = errors.New("invalid permission")
)

var expiryOptions = map[string]time.Duration{
	"1H": time.Hour,
	"1D": 24 * time.Hour,
	"1M": 30 * 24 * time.Hour,
	"1Y": 365 * 24 * time.Hour,
}

// Service manages API keys. Create and Rollover return the raw key
// exactly once; it is never recoverable afterwards.
type Service interface {
	Create(ctx context.Context, user *models.User, name string, permissions []string, expiry string) (*models.APIKey, string, error)
	Rollover(ctx context.Context, user *models.User, keyID uint) (*models.APIKey, string, error)
	Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error)
}

type service struct {
	repo  repositories.APIKeyRepository
	limit int
	now   func() time.Time
}

func NewService(repo repositories.APIKeyRepository, limit int) Service {
	if repo == nil {
		panic("api key repository is required")
	}
	if limit <= 0 {
		limit = 10
	}
	return &service{
		repo:  repo,
		limit: limit,
		now:   time.Now,
	}
}

func (s *service) Create(ctx context.Context, user *models.User, name string, permissions []string, expiry string) (*models.APIKey, string, error) {
	if err := s.enforceLimit(ctx, user.ID); err != nil {
		return nil, "", err
	}

	for _, p := range permissions {
		if _, ok := models.ParsePermission(p); !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrInvalidPermission, p)
		}
	}

	ttl, ok := expiryOptions[strings.ToUpper(expiry)]
	if !ok {
		return nil, "", ErrInvalidExpiry
	}

	rawKey, err := utils.GenerateSecureCode()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key: %w", err)
	}
	hashed, err := hashKey(rawKey)
	if err != nil {
		return nil, "", err
	}

	key := &models.APIKey{
		UserID:      user.ID,
		Name:        name,
		KeyHash:     hashed,
		Permissions: models.StringList(permissions),
		ExpiresAt:   s.now().Add(ttl),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, "", err
	}
	return key, rawKey, nil
}

// Rollover replaces an expired key with a fresh one carrying the same
// name, permissions and lifetime, revoking the old key.
func (s *service) Rollover(ctx context.Context, user *models.User, keyID uint) (*models.APIKey, string, error) {
	source, err := s.repo.ByID(ctx, keyID)
	if err != nil || source.UserID != user.ID {
		return nil, "", ErrKeyNotFound
	}
	if source.Revoked {
		return nil, "", ErrKeyRevoked
	}
	if source.ExpiresAt.After(s.now()) {
		return nil, "", ErrKeyNotExpired
	}

	rawKey, err := utils.GenerateSecureCode()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key: %w", err)
	}
	hashed, err := hashKey(rawKey)
	if err != nil {
		return nil, "", err
	}

	ttl := source.ExpiresAt.Sub(source.CreatedAt)
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	replacement := &models.APIKey{
		UserID:      user.ID,
		Name:        source.Name,
		KeyHash:     hashed,
		Permissions: source.Permissions,
		ExpiresAt:   s.now().Add(ttl),
	}
	if err := s.repo.Create(ctx, replacement); err != nil {
		return nil, "", err
	}

	source.Revoked = true
	if err := s.repo.Update(ctx, source); err != nil {
		return nil, "", err
	}
	return replacement, rawKey, nil
}

func (s *service) Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	keys, err := s.repo.Unrevoked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}

	now := s.now()
	for i := range keys {
		key := &keys[i]
		if !key.Active(now) {
			continue
		}
		if verifyKey(rawKey, key.KeyHash) {
			return key, nil
		}
	}
	return nil, ErrInvalidKey
}

func (s *service) enforceLimit(ctx context.Context, userID uint) error {
	keys, err := s.repo.UnrevokedByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}
	active := 0
	now := s.now()
	for i := range keys {
		if keys[i].Active(now) {
			active++
		}
	}
	if active >= s.limit {
		return ErrKeyLimitReached
	}
	return nil
}
