package handlers

import (
	"errors"
	"log"

	"kolo/internal/middleware"
	"kolo/internal/services/ledger"
	"kolo/internal/services/paystack"
	"kolo/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(ledgerService ledger.Service) *WalletHandler {
	return &WalletHandler{
		ledger: ledgerService,
	}
}

func (h *WalletHandler) InitializeDeposit(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount int64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	intent, err := h.ledger.InitializeDeposit(c.Context(), authCtx.User, input.Amount)
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, intent)
}

// Webhook handles provider notifications. Any payload with a valid
// signature is acknowledged with 200 so the provider stops retrying;
// unknown references are logged, not rejected.
func (h *WalletHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("x-paystack-signature")
	body := c.Body()

	err := h.ledger.ProcessWebhook(c.Context(), signature, body)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidSignature), errors.Is(err, ledger.ErrMalformedPayload):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, ledger.ErrTransactionNotFound):
			log.Printf("webhook: unknown transaction reference")
		case errors.Is(err, ledger.ErrVerificationUnavailable):
			// Signature checked out, so acknowledge; the scheduler
			// settles the transaction once the provider is reachable.
			log.Printf("webhook: verification deferred: %v", err)
		default:
			return ledgerError(c, err)
		}
	}
	return utils.Success(c, fiber.Map{"status": "processed"})
}

func (h *WalletHandler) DepositStatus(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	reference := c.Params("reference")
	refresh := c.QueryBool("refresh")

	txn, err := h.ledger.GetTransactionStatus(c.Context(), reference, authCtx.User, refresh)
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, txn)
}

func (h *WalletHandler) Balance(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	wallet, err := h.ledger.GetWallet(c.Context(), authCtx.User)
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, wallet)
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		RecipientWalletNumber string `json:"recipient_wallet_number"`
		Amount                int64  `json:"amount"`
		Reference             string `json:"reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	wallet, err := h.ledger.GetWallet(c.Context(), authCtx.User)
	if err != nil {
		return ledgerError(c, err)
	}

	txn, err := h.ledger.Transfer(c.Context(), wallet, input.RecipientWalletNumber, input.Amount, input.Reference)
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"reference": txn.Reference,
		"status":    txn.Status,
	})
}

func (h *WalletHandler) Transactions(c *fiber.Ctx) error {
	authCtx, err := middleware.AuthFromContext(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	wallet, err := h.ledger.GetWallet(c.Context(), authCtx.User)
	if err != nil {
		return ledgerError(c, err)
	}

	txns, err := h.ledger.ListTransactions(c.Context(), wallet)
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, txns)
}

// ledgerError maps the engine's error taxonomy onto HTTP statuses.
// Validation failures are 400, missing (or masked) resources are 404,
// provider trouble is 502 so callers know to retry.
func ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrDuplicateReference),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInvalidSignature),
		errors.Is(err, ledger.ErrMalformedPayload):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrRecipientNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, paystack.ErrGatewayUnavailable),
		errors.Is(err, paystack.ErrGatewayRejected),
		errors.Is(err, ledger.ErrVerificationUnavailable):
		return utils.BadGateway(c, err.Error())
	default:
		log.Printf("wallet handler: %v", err)
		return utils.InternalError(c, "internal error")
	}
}
