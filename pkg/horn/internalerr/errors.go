package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrType             = errors.New("type error")
	ErrUnknownPredicate = errors.New("unknown predicate")
	ErrMalformedClause  = errors.New("malformed clause")
	ErrPermission       = errors.New("permission denied")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
