package services

import "errors"

// Sentinel errors for the failure taxonomy. Handlers translate these into
// HTTP statuses; everything else is reported as an internal error.
var (
	ErrUserNotFound      = errors.New("User not found")
	ErrOrderNotFound     = errors.New("Order not found")
	ErrProductNotFound   = errors.New("Product not found")
	ErrAssetNotFound     = errors.New("Asset not found")
	ErrOriginNotFound    = errors.New("Origin not found")
	ErrNextOwnerNotFound = errors.New("Next owner not found")

	ErrUnauthorized = errors.New("Unauthorized action")

	ErrEmailTaken         = errors.New("User already exists")
	ErrInvalidCredentials = errors.New("Invalid email or password")

	// ErrLedgerUpdateFailed means the transaction was mined but the receipt
	// signalled failure. Relational state is intentionally left standing.
	ErrLedgerUpdateFailed = errors.New("Failed to update order on the blockchain")

	ErrValidation = errors.New("missing required field")
)
