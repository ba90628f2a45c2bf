package storage

import "errors"

var (
	ErrCreateFailed = errors.New("failed to create session file")
	ErrWriteFailed  = errors.New("failed to write session file")
	ErrReadFailed   = errors.New("failed to read session file")
	ErrExportFailed = errors.New("failed to export session")
)
