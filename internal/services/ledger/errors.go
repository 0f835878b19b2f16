package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrRecipientNotFound   = errors.New("recipient wallet not found")
	ErrSelfTransfer        = errors.New("cannot transfer to the same wallet")
	ErrDuplicateReference  = errors.New("duplicate transaction reference")
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransactionNotFound also masks transactions owned by other
	// users, so existence is never leaked across accounts.
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrMalformedPayload        = errors.New("malformed webhook payload")
	ErrVerificationUnavailable = errors.New("unable to verify transaction")
	ErrTransferFailed          = errors.New("transfer failed")
)
