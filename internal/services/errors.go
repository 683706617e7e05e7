package services

import "errors"

// Error taxonomy shared by stores and handlers. Stores wrap driver errors with
// ErrStoreUnavailable; handlers map these to fixed client-facing messages so raw
// driver text never reaches a response body.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidID        = errors.New("invalid id")
	ErrStoreUnavailable = errors.New("store unavailable")
)
