package paystack

import "errors"

// Client errors
var (
	// ErrGatewayUnavailable covers transport-level failures reaching the
	// provider.
	ErrGatewayUnavailable = errors.New("payment gateway unreachable")
	// ErrGatewayRejected covers non-success HTTP statuses and
	// provider-reported failures embedded in a 200 response.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")
)
