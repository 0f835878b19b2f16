// Package middleware provides HTTP middleware for the application,
// resolving inbound credentials into an authenticated context before
// any ledger operation runs.
package middleware

import (
	"strings"

	"kolo/internal/models"
	"kolo/internal/services/apikey"
	"kolo/internal/services/auth"
	"kolo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const authContextKey = "authctx"

// AuthContext is the resolved identity every handler works with: the
// user plus the permission set granted by the credential that
// authenticated them.
type AuthContext struct {
	User        *models.User
	APIKey      *models.APIKey
	Permissions []models.Permission
}

// HasPermission checks the granted permission set.
func (a *AuthContext) HasPermission(p models.Permission) bool {
	for _, granted := range a.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// AuthMiddleware accepts either a bearer ID token or an x-api-key
// header and stores the resulting AuthContext in the request locals.
type AuthMiddleware struct {
	authService auth.Service
	apiKeys     apikey.Service
}

func NewAuthMiddleware(authService auth.Service, apiKeys apikey.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		apiKeys:     apiKeys,
	}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utils.Unauthorized(c, "invalid authorization header")
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return utils.Unauthorized(c, "invalid authorization header")
		}

		user, err := m.authService.ResolveUser(c.Context(), token)
		if err != nil {
			return utils.Unauthorized(c, "invalid token")
		}

		c.Locals(authContextKey, &AuthContext{
			User:        user,
			Permissions: models.AllPermissions(),
		})
		return c.Next()
	}

	if rawKey := c.Get("x-api-key"); rawKey != "" {
		key, err := m.apiKeys.Authenticate(c.Context(), rawKey)
		if err != nil {
			return utils.Unauthorized(c, "invalid api key")
		}
		user, err := m.authService.UserByID(c.Context(), key.UserID)
		if err != nil {
			return utils.Unauthorized(c, "invalid api key")
		}

		permissions := make([]models.Permission, 0, len(key.Permissions))
		for _, raw := range key.Permissions {
			if p, ok := models.ParsePermission(raw); ok {
				permissions = append(permissions, p)
			}
		}

		c.Locals(authContextKey, &AuthContext{
			User:        user,
			APIKey:      key,
			Permissions: permissions,
		})
		return c.Next()
	}

	return utils.Unauthorized(c, "authentication required")
}

// RequirePermission guards a route with one permission from the closed
// set.
func RequirePermission(p models.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authCtx, ok := c.Locals(authContextKey).(*AuthContext)
		if !ok || authCtx == nil {
			return utils.Unauthorized(c, "authentication required")
		}
		if !authCtx.HasPermission(p) {
			return utils.Forbidden(c, "insufficient permissions")
		}
		return c.Next()
	}
}

// AuthFromContext extracts the AuthContext a handler runs under.
func AuthFromContext(c *fiber.Ctx) (*AuthContext, error) {
	authCtx, ok := c.Locals(authContextKey).(*AuthContext)
	if !ok || authCtx == nil {
		return nil, fiber.ErrUnauthorized
	}
	return authCtx, nil
}
