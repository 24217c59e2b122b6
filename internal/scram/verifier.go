package scram

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

// Mechanism is the only SASL mechanism this package implements.
const Mechanism = "SCRAM-SHA-256"

// Verifier is the parsed form of the persisted authentication verifier:
//
//	SCRAM-SHA-256$<iterations>:<salt>$<StoredKey>:<ServerKey>
//
// with the salt and keys base64-encoded. It is created once at
// password-set time and read on every login attempt; it never contains
// the password itself.
type Verifier struct {
	Mechanism  string
	Iterations int
	Salt       []byte
	StoredKey  []byte
	ServerKey  []byte
}

// BuildVerifier derives the verifier for the given password. When salt
// is nil a fresh random salt of DefaultSaltLength bytes is generated.
func BuildVerifier(password string, salt []byte, iterations int) (*Verifier, error) {
	prepped, err := saslPrep(password)
	if err != nil {
		return nil, err
	}

	if salt == nil {
		salt = GenerateSalt()
	}

	saltedPassword, err := SaltedPassword([]byte(prepped), salt, iterations)
	if err != nil {
		return nil, err
	}

	return &Verifier{
		Mechanism:  Mechanism,
		Iterations: iterations,
		Salt:       salt,
		StoredKey:  H(ClientKey(saltedPassword)),
		ServerKey:  ServerKey(saltedPassword),
	}, nil
}

// String formats the verifier in its persisted representation. The
// output round-trips through ParseVerifier without loss.
func (v *Verifier) String() string {
	return fmt.Sprintf("%s$%d:%s$%s:%s",
		v.Mechanism, v.Iterations, b64(v.Salt), b64(v.StoredKey), b64(v.ServerKey))
}

// ParseVerifier parses the persisted verifier representation. Any
// structural deviation (wrong segment count, wrong mechanism literal,
// missing salt or server key, non-numeric iteration count) is reported
// as common.ErrInvalidVerifier.
func ParseVerifier(text string) (*Verifier, error) {
	parts := strings.Split(text, "$")
	if len(parts) != 3 {
		return nil, common.ErrInvalidVerifier
	}

	if parts[0] != Mechanism {
		return nil, common.ErrInvalidVerifier
	}

	iterPart, saltB64, _ := strings.Cut(parts[1], ":")
	storedB64, serverB64, _ := strings.Cut(parts[2], ":")
	if saltB64 == "" || serverB64 == "" {
		return nil, common.ErrInvalidVerifier
	}

	iterations, err := strconv.Atoi(iterPart)
	if err != nil {
		return nil, common.ErrInvalidVerifier
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, common.ErrInvalidVerifier
	}
	storedKey, err := base64.StdEncoding.DecodeString(storedB64)
	if err != nil {
		return nil, common.ErrInvalidVerifier
	}
	serverKey, err := base64.StdEncoding.DecodeString(serverB64)
	if err != nil {
		return nil, common.ErrInvalidVerifier
	}

	return &Verifier{
		Mechanism:  parts[0],
		Iterations: iterations,
		Salt:       salt,
		StoredKey:  storedKey,
		ServerKey:  serverKey,
	}, nil
}

// VerifyPassword checks the given password against a persisted
// verifier. It returns true if the password matches, false otherwise;
// an error indicates the verifier itself could not be parsed.
func VerifyPassword(password, verifier string) (bool, error) {
	prepped, err := saslPrep(password)
	if err != nil {
		return false, err
	}

	v, err := ParseVerifier(verifier)
	if err != nil {
		return false, err
	}

	saltedPassword, err := SaltedPassword([]byte(prepped), v.Salt, v.Iterations)
	if err != nil {
		return false, err
	}

	computed := ServerKey(saltedPassword)
	return subtle.ConstantTimeCompare(computed, v.ServerKey) == 1, nil
}
