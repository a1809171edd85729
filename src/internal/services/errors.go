package services

import "errors"

// Sentinel errors shared across services. Handlers translate these to
// HTTP status codes.
var (
	ErrNotFound         = errors.New("record not found")
	ErrForbidden        = errors.New("operation not permitted")
	ErrRequestDecided   = errors.New("request has already been decided")
	ErrDuplicateRequest = errors.New("a pending request with this name already exists")
	ErrLabelExists      = errors.New("a label with this name already exists")
	ErrDuplicateEntry   = errors.New("entry already exists")
	ErrInvalidInput     = errors.New("invalid input")
)
