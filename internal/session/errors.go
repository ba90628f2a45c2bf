package session

import "errors"

var (
	ErrFlushFailed  = errors.New("failed to flush session log")
	ErrEncodeFailed = errors.New("failed to encode session document")
	ErrDecodeFailed = errors.New("failed to decode session document")
)
