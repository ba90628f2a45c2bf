package paramstore

import "errors"

var (
	ErrOpenFailed   = errors.New("failed to open parameter store")
	ErrLoadFailed   = errors.New("failed to load parameters")
	ErrSaveFailed   = errors.New("failed to save parameters")
	ErrCorruptValue = errors.New("stored parameter is not an integer")
)
