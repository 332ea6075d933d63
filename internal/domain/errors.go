package domain

import "errors"

var (
	ErrEmptyInput     = errors.New("text is empty")
	ErrNoTextColumn   = errors.New("no text column found")
	ErrRecordNotFound = errors.New("analysis record not found")
	ErrInvalidRecord  = errors.New("invalid analysis record")
	ErrNULInText      = errors.New("text contains a NUL character")
)

var (
	ErrOutOfRange        = errors.New("value out of range")
	ErrExportUnavailable = errors.New("export archive is not configured")
)
