package collection

import "errors"

var (
	ErrNotInitialized     = errors.New("collection not initialized")
	ErrAlreadyInitialized = errors.New("collection already initialized")
	ErrUnauthorized       = errors.New("caller not authorized")

	ErrZeroRecipient    = errors.New("recipient is the zero address")
	ErrMetadataTooLarge = errors.New("metadata too large")
	ErrNumericOverflow  = errors.New("value exceeds int64 range")
	ErrKeyMaskRange     = errors.New("key mask out of range")
	ErrScanLimitRange   = errors.New("scan limit out of range")

	ErrNoKeysSelected       = errors.New("no keys selected")
	ErrAdminConfirmRequired = errors.New("admin neutralization requires confirmation")

	ErrScanTooCostly    = errors.New("scan would exceed the configured limit")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)
