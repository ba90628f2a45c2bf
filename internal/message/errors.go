package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")
	ErrMissingField        = errors.New("numeric field missing or not a number")
	ErrInvalidSample       = errors.New("invalid sample payload")
	ErrUnknownEncoding     = errors.New("unknown sample encoding")
)
