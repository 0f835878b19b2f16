package apikey

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolo/internal/models"
	"kolo/internal/repositories"
)

type fakeAPIKeyRepo struct {
	mu     sync.Mutex
	keys   map[uint]*models.APIKey
	nextID uint
}

func newFakeAPIKeyRepo() *fakeAPIKeyRepo {
	return &fakeAPIKeyRepo{keys: make(map[uint]*models.APIKey)}
}

func (r *fakeAPIKeyRepo) Create(_ context.Context, key *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	key.ID = r.nextID
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}
	stored := *key
	r.keys[key.ID] = &stored
	return nil
}

func (r *fakeAPIKeyRepo) Update(_ context.Context, key *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key.ID]; !ok {
		return repositories.ErrAPIKeyNotFound
	}
	stored := *key
	r.keys[key.ID] = &stored
	return nil
}

func (r *fakeAPIKeyRepo) ByID(_ context.Context, id uint) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.keys[id]; ok {
		copied := *key
		return &copied, nil
	}
	return nil, repositories.ErrAPIKeyNotFound
}

func (r *fakeAPIKeyRepo) UnrevokedByUser(_ context.Context, userID uint) ([]models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.APIKey
	for _, key := range r.keys {
		if key.UserID == userID && !key.Revoked {
			out = append(out, *key)
		}
	}
	return out, nil
}

func (r *fakeAPIKeyRepo) Unrevoked(_ context.Context) ([]models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.APIKey
	for _, key := range r.keys {
		if !key.Revoked {
			out = append(out, *key)
		}
	}
	return out, nil
}

func TestCreate(t *testing.T) {
	user := &models.User{ID: 1, Email: "user@example.com"}

	t.Run("issues a key with hashed storage", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 5).(*service)

		key, raw, err := svc.Create(context.Background(), user, "ci", []string{"read", "deposit"}, "1M")
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
		assert.NotEqual(t, raw, key.KeyHash)
		assert.True(t, key.HasPermission(models.PermissionRead))
		assert.True(t, key.HasPermission(models.PermissionDeposit))
		assert.False(t, key.HasPermission(models.PermissionTransfer))
		assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), key.ExpiresAt, time.Minute)

		// The raw key is never persisted.
		stored, err := repo.ByID(context.Background(), key.ID)
		require.NoError(t, err)
		assert.NotContains(t, stored.KeyHash, raw)
	})

	t.Run("rejects unknown permissions", func(t *testing.T) {
		svc := NewService(newFakeAPIKeyRepo(), 5)

		_, _, err := svc.Create(context.Background(), user, "ci", []string{"read", "admin"}, "1D")
		assert.ErrorIs(t, err, ErrInvalidPermission)
	})

	t.Run("rejects unknown expiry options", func(t *testing.T) {
		svc := NewService(newFakeAPIKeyRepo(), 5)

		for _, expiry := range []string{"", "2W", "forever"} {
			_, _, err := svc.Create(context.Background(), user, "ci", []string{"read"}, expiry)
			assert.ErrorIs(t, err, ErrInvalidExpiry)
		}
	})

	t.Run("enforces the per-user active limit", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 2)

		for i := 0; i < 2; i++ {
			_, _, err := svc.Create(context.Background(), user, "ci", []string{"read"}, "1D")
			require.NoError(t, err)
		}
		_, _, err := svc.Create(context.Background(), user, "ci", []string{"read"}, "1D")
		assert.ErrorIs(t, err, ErrKeyLimitReached)

		// Other users have their own quota.
		other := &models.User{ID: 2}
		_, _, err = svc.Create(context.Background(), other, "ci", []string{"read"}, "1D")
		assert.NoError(t, err)
	})

	t.Run("expired keys do not count toward the limit", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 1).(*service)

		past := time.Now().Add(-48 * time.Hour)
		svc.now = func() time.Time { return past }
		_, _, err := svc.Create(context.Background(), user, "old", []string{"read"}, "1D")
		require.NoError(t, err)

		svc.now = time.Now
		_, _, err = svc.Create(context.Background(), user, "new", []string{"read"}, "1D")
		assert.NoError(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	user := &models.User{ID: 1, Email: "user@example.com"}

	t.Run("matches the issued raw key", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 5)

		created, raw, err := svc.Create(context.Background(), user, "ci", []string{"transfer"}, "1D")
		require.NoError(t, err)

		key, err := svc.Authenticate(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, created.ID, key.ID)
		assert.True(t, key.HasPermission(models.PermissionTransfer))
	})

	t.Run("rejects unknown, expired and revoked keys", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 5).(*service)

		_, err := svc.Authenticate(context.Background(), "no-such-key")
		assert.ErrorIs(t, err, ErrInvalidKey)

		past := time.Now().Add(-48 * time.Hour)
		svc.now = func() time.Time { return past }
		_, expiredRaw, err := svc.Create(context.Background(), user, "expired", []string{"read"}, "1D")
		require.NoError(t, err)
		svc.now = time.Now

		_, err = svc.Authenticate(context.Background(), expiredRaw)
		assert.ErrorIs(t, err, ErrInvalidKey)

		revoked, revokedRaw, err := svc.Create(context.Background(), user, "revoked", []string{"read"}, "1D")
		require.NoError(t, err)
		revoked.Revoked = true
		require.NoError(t, repo.Update(context.Background(), revoked))

		_, err = svc.Authenticate(context.Background(), revokedRaw)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestRollover(t *testing.T) {
	user := &models.User{ID: 1, Email: "user@example.com"}

	t.Run("replaces an expired key and revokes the old one", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 5).(*service)

		past := time.Now().Add(-48 * time.Hour)
		svc.now = func() time.Time { return past }
		old, oldRaw, err := svc.Create(context.Background(), user, "ci", []string{"read", "transfer"}, "1D")
		require.NoError(t, err)
		svc.now = time.Now

		replacement, raw, err := svc.Rollover(context.Background(), user, old.ID)
		require.NoError(t, err)
		assert.NotEqual(t, old.ID, replacement.ID)
		assert.Equal(t, old.Name, replacement.Name)
		assert.Equal(t, old.Permissions, replacement.Permissions)
		assert.True(t, replacement.ExpiresAt.After(time.Now()))

		// Only the new credential authenticates.
		_, err = svc.Authenticate(context.Background(), oldRaw)
		assert.ErrorIs(t, err, ErrInvalidKey)
		key, err := svc.Authenticate(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, replacement.ID, key.ID)

		stored, err := repo.ByID(context.Background(), old.ID)
		require.NoError(t, err)
		assert.True(t, stored.Revoked)
	})

	t.Run("refuses keys that have not expired", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 5)

		key, _, err := svc.Create(context.Background(), user, "ci", []string{"read"}, "1Y")
		require.NoError(t, err)

		_, _, err = svc.Rollover(context.Background(), user, key.ID)
		assert.ErrorIs(t, err, ErrKeyNotExpired)
	})

	t.Run("masks other users' keys as not found", func(t *testing.T) {
		repo := newFakeAPIKeyRepo()
		svc := NewService(repo, 5)

		key, _, err := svc.Create(context.Background(), user, "ci", []string{"read"}, "1D")
		require.NoError(t, err)

		stranger := &models.User{ID: 2}
		_, _, err = svc.Rollover(context.Background(), stranger, key.ID)
		assert.ErrorIs(t, err, ErrKeyNotFound)

		_, _, err = svc.Rollover(context.Background(), user, 999)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestHashKey(t *testing.T) {
	h1, err := hashKey("secret-key")
	require.NoError(t, err)
	h2, err := hashKey("secret-key")
	require.NoError(t, err)

	// Fresh salt every time.
	assert.NotEqual(t, h1, h2)

	assert.True(t, verifyKey("secret-key", h1))
	assert.True(t, verifyKey("secret-key", h2))
	assert.False(t, verifyKey("wrong-key", h1))
	assert.False(t, verifyKey("secret-key", "not base64!!"))
	assert.False(t, verifyKey("secret-key", ""))
}
