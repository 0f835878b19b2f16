package handlers

import (
	"kolo/internal/services/auth"
	"kolo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// GoogleSignIn resolves a provider ID token into a local user,
// onboarding them with a wallet on first sign-in. The OAuth code
// exchange itself happens client-side against the provider.
func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	var input struct {
		IDToken string `json:"id_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.IDToken == "" {
		return utils.BadRequest(c, "id_token is required")
	}

	user, err := h.authService.ResolveUser(c.Context(), input.IDToken)
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}
	return utils.Success(c, user)
}
