package repositories

import "errors"

// Sentinel errors returned by the repository layer.
var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrAPIKeyNotFound      = errors.New("api key not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
)
