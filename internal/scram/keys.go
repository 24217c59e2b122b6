// Package scram implements the SCRAM-SHA-256 salted challenge-response
// authentication mechanism used by the wire protocol: key derivation,
// the persisted verifier format, handshake message construction and
// parsing per the RFC 5802 grammar, and client/server handshake
// sessions.
//
// All hashing uses SHA-256; HMAC uses SHA-256 as the inner and outer
// hash. Usernames and passwords are passed through SASLprep before any
// key material is derived from them.
package scram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/xdg-go/stringprep"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

const (
	// RawNonceLength is the number of random bytes in a generated nonce.
	RawNonceLength = 18

	// Per recommendations in RFC 7677.
	DefaultSaltLength = 16
	DefaultIterations = 4096
)

// HMAC computes HMAC-SHA-256 of msg under key.
func HMAC(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// H computes SHA-256 of s.
func H(s []byte) []byte {
	sum := sha256.Sum256(s)
	return sum[:]
}

// XOR returns the bytewise exclusive-or of a and b. Operands of unequal
// length are a contract violation reported as common.ErrLengthMismatch.
func XOR(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, common.ErrLengthMismatch
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// SaltedPassword implements Hi() from RFC 5802 §2.2:
//
//	U1 = HMAC(password, salt || INT(1))
//	Ui = HMAC(password, Ui-1)
//	Hi = U1 XOR U2 XOR ... XOR Ui
//
// The iteration count must be at least 1.
func SaltedPassword(password, salt []byte, iterations int) ([]byte, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("scram: iteration count must be positive, got %d", iterations)
	}

	msg := make([]byte, 0, len(salt)+4)
	msg = append(msg, salt...)
	msg = append(msg, 0x00, 0x00, 0x00, 0x01)

	u := HMAC(password, msg)
	h := make([]byte, len(u))
	copy(h, u)

	for i := 1; i < iterations; i++ {
		u = HMAC(password, u)
		for j := range h {
			h[j] ^= u[j]
		}
	}

	return h, nil
}

// ClientKey derives the client key from a salted password.
func ClientKey(saltedPassword []byte) []byte {
	return HMAC(saltedPassword, []byte("Client Key"))
}

// ServerKey derives the server key from a salted password.
func ServerKey(saltedPassword []byte) []byte {
	return HMAC(saltedPassword, []byte("Server Key"))
}

// GenerateSalt returns a fresh random salt of DefaultSaltLength bytes.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(DefaultSaltLength)
}

// GenerateNonce returns a fresh random nonce, base64-encoded for use in
// handshake messages.
func GenerateNonce() string {
	return b64(common.GenerateRandByteArray(RawNonceLength))
}

// saslPrep normalizes a username or password per the SASLprep profile
// of stringprep (RFC 4013). Prohibited input is a malformed-message
// condition.
func saslPrep(s string) (string, error) {
	out, err := stringprep.SASLprep.Prepare(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMalformedMessage, err)
	}
	return out, nil
}

func b64(p []byte) string {
	return base64.StdEncoding.EncodeToString(p)
}
