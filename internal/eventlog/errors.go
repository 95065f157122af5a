package eventlog

import "errors"

var (
	// ErrMalformedRecord is returned when a stored or submitted record fails to decode.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidKey is returned when key bytes do not match the fixed key layout.
	ErrInvalidKey = errors.New("invalid key")
	// ErrEncodingConstraint is returned when a payload does not fit the length field.
	ErrEncodingConstraint = errors.New("encoding constraint violated")
	// ErrWriteFailed wraps engine write failures.
	ErrWriteFailed = errors.New("write failed")
)
