package core

import (
	"errors"
)

// Error kinds surfaced by the digitizer and its collaborators. Callers
// classify with errors.Is or Kind; messages are wrapped with context.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDecodeFailure       = errors.New("could not decode image")
	ErrNoSignatureDetected = errors.New("no signature detected or image is too low quality")
	ErrEncodeFailure       = errors.New("failed to encode image")
)

// ErrorKind is the machine readable class of an error
type ErrorKind string

const (
	KindInvalidInput  ErrorKind = "invalid_input"
	KindDecodeFailure ErrorKind = "decode_failure"
	KindNoSignature   ErrorKind = "no_signature"
	KindEncodeFailure ErrorKind = "encode_failure"
	KindInternal      ErrorKind = "internal"
)

// Kind classifies err. Anything not wrapping a known sentinel is internal.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrDecodeFailure):
		return KindDecodeFailure
	case errors.Is(err, ErrNoSignatureDetected):
		return KindNoSignature
	case errors.Is(err, ErrEncodeFailure):
		return KindEncodeFailure
	default:
		return KindInternal
	}
}

// IsClientError reports whether err was caused by what the caller supplied
// rather than by a fault on our side.
func IsClientError(err error) bool {
	switch Kind(err) {
	case KindInvalidInput, KindDecodeFailure, KindNoSignature:
		return true
	}
	return false
}
