// Package common defines shared constants and sentinel errors used across
// dbwire components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Handshake errors. Any of these is terminal for the attempt;
	// retrying a full handshake is the caller's responsibility.
	ErrMalformedMessage      = errors.New("malformed SCRAM message")
	ErrNonceMismatch         = errors.New("invalid SCRAM client-final message: nonce does not match")
	ErrUnsupportedExtensions = errors.New("unsupported SCRAM extensions in message")
	ErrHandshakeState        = errors.New("invalid handshake state")
	ErrAuthenticationFailed  = errors.New("authentication failed")

	// Verifier errors (wrong segment count, wrong mechanism,
	// non-numeric iteration count, missing salt or server key).
	ErrInvalidVerifier = errors.New("invalid SCRAM verifier")

	// Type-descriptor errors. Malformed covers truncation and
	// out-of-range position references; unsupported covers unknown tag
	// bytes, unknown base scalar ids and multi-dimensional arrays.
	ErrMalformedDescriptor   = errors.New("malformed type descriptor")
	ErrUnsupportedDescriptor = errors.New("unsupported type descriptor")

	// Programming-contract violations.
	ErrLengthMismatch = errors.New("xor received operands of unequal length")
)
