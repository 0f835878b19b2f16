package handlers

import (
	"errors"
	"strconv"

	"kolo/internal/middleware"
	"kolo/internal/services/apikey"
	"kolo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type APIKeyHandler struct {
	keys apikey.Service
}

func NewAPIKeyHandler(keys apikey.Service) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

func (h *APIKeyHandler) Create(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
		Expiry      string   `json:"expiry"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Name == "" {
		return utils.BadRequest(c, "name is required")
	}

	key, rawKey, err := h.keys.Create(c.Context(), authCtx.User, input.Name, input.Permissions, input.Expiry)
	if err != nil {
		return apiKeyError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"api_key": key,
		// The raw key is shown exactly once.
		"key": rawKey,
	})
}

func (h *APIKeyHandler) Rollover(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	keyID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid key id")
	}

	key, rawKey, err := h.keys.Rollover(c.Context(), authCtx.User, uint(keyID))
	if err != nil {
		return apiKeyError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"api_key": key,
		"key":     rawKey,
	})
}

func apiKeyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apikey.ErrKeyNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, apikey.ErrKeyLimitReached),
		errors.Is(err, apikey.ErrKeyRevoked),
		errors.Is(err, apikey.ErrKeyNotExpired),
		errors.Is(err, apikey.ErrInvalidExpiry),
		errors.Is(err, apikey.ErrInvalidPermission):
		return utils.BadRequest(c, err.Error())
	default:
		return utils.InternalError(c, "internal error")
	}
}
