package scram

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/dbwire/internal/common"
)

func TestXOR_RoundTrip(t *testing.T) {
	t.Parallel()

	a := []byte{0x00, 0xff, 0x55, 0xaa}
	b := []byte{0x0f, 0xf0, 0x12, 0x34}

	x, err := XOR(a, b)
	require.NoError(t, err)

	back, err := XOR(x, b)
	require.NoError(t, err)
	assert.Equal(t, a, back)
}

func TestXOR_LengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := XOR([]byte{1, 2, 3}, []byte{1, 2})
	require.ErrorIs(t, err, common.ErrLengthMismatch)
}

// SaltedPassword implements Hi() from RFC 5802, which is PBKDF2 with
// HMAC-SHA-256 and a digest-sized key. The two must agree for any
// password, salt and iteration count.
func TestSaltedPassword_MatchesPBKDF2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		password   string
		salt       string
		iterations int
	}{
		{"pencil", "salt", 1},
		{"pencil", "salt", 2},
		{"pencil", "W22ZaJ0SNY7soEsUEjb6gQ==", 4096},
		{"", "s", 10},
		{"long password with spaces", "another salt", 100},
	}

	for _, tc := range cases {
		got, err := SaltedPassword([]byte(tc.password), []byte(tc.salt), tc.iterations)
		require.NoError(t, err)

		want := pbkdf2.Key([]byte(tc.password), []byte(tc.salt), tc.iterations, sha256.Size, sha256.New)
		assert.Equal(t, want, got, "iterations=%d", tc.iterations)
	}
}

func TestSaltedPassword_OneIteration(t *testing.T) {
	t.Parallel()

	password := []byte("pw")
	salt := []byte("salt")

	got, err := SaltedPassword(password, salt, 1)
	require.NoError(t, err)

	// With a single iteration Hi() is just U1.
	u1 := HMAC(password, append(append([]byte{}, salt...), 0x00, 0x00, 0x00, 0x01))
	assert.Equal(t, u1, got)
}

func TestSaltedPassword_RejectsNonPositiveIterations(t *testing.T) {
	t.Parallel()

	for _, iterations := range []int{0, -1, -4096} {
		_, err := SaltedPassword([]byte("pw"), []byte("salt"), iterations)
		assert.Error(t, err, "iterations=%d", iterations)
	}
}

func TestGenerateNonce_PrintableAndFresh(t *testing.T) {
	t.Parallel()

	a := GenerateNonce()
	b := GenerateNonce()

	if a == b {
		t.Logf("warning: two generated nonces are identical; extremely unlikely")
	}
	if !isPrintableASCII([]byte(a)) {
		t.Fatalf("nonce is not printable ASCII: %q", a)
	}
}

func TestGenerateSalt_DefaultLength(t *testing.T) {
	t.Parallel()

	assert.Len(t, GenerateSalt(), DefaultSaltLength)
}
