package scramgen

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dbwire/internal/common"
	"github.com/dmitrijs2005/dbwire/internal/credentials"
	"github.com/dmitrijs2005/dbwire/internal/logging"
	"github.com/dmitrijs2005/dbwire/internal/scram"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	cfg, err := ParseFlags([]string{"-user", "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, scram.DefaultIterations, cfg.Iterations)

	cfg, err = ParseFlags([]string{"-user", "alice", "-i", "1000"})
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Iterations)
}

func TestParseFlags_UserRequired(t *testing.T) {
	t.Parallel()

	_, err := ParseFlags(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-user is required")

	// Verify mode does not need a user.
	_, err = ParseFlags([]string{"-verify", "SCRAM-SHA-256$1:eA==$eQ==:eg=="})
	assert.NoError(t, err)
}

func TestRun_GeneratesUsableVerifier(t *testing.T) {
	t.Parallel()

	cfg := &Config{User: "alice", Iterations: 1000}
	var out bytes.Buffer

	err := Run(context.Background(), cfg, []byte("hunter2"), &out, discardLogger())
	require.NoError(t, err)

	text := strings.TrimSpace(out.String())
	_, err = scram.ParseVerifier(text)
	require.NoError(t, err)

	ok, err := scram.VerifyPassword("hunter2", text)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_WipesPassword(t *testing.T) {
	t.Parallel()

	cfg := &Config{User: "alice", Iterations: 1}
	password := []byte("hunter2")

	require.NoError(t, Run(context.Background(), cfg, password, io.Discard, discardLogger()))
	assert.Equal(t, make([]byte, len("hunter2")), password)
}

func TestRun_VerifyMode(t *testing.T) {
	t.Parallel()

	v, err := scram.BuildVerifier("hunter2", nil, 1000)
	require.NoError(t, err)

	cfg := &Config{Verify: v.String()}
	var out bytes.Buffer

	err = Run(context.Background(), cfg, []byte("hunter2"), &out, discardLogger())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "password OK")

	err = Run(context.Background(), cfg, []byte("wrong"), io.Discard, discardLogger())
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestRun_StoresCredentials(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "local.json")
	cfg := &Config{
		User:       "alice",
		Iterations: 1000,
		OutFile:    path,
		Host:       "db.example.com",
		Port:       10700,
		Database:   "main",
	}

	err := Run(context.Background(), cfg, []byte("hunter2"), io.Discard, discardLogger())
	require.NoError(t, err)

	creds, err := credentials.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.User)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "db.example.com", creds.Host)
	assert.Equal(t, 10700, creds.Port)
	assert.Equal(t, "main", creds.Database)
}

func stubReadPassword(t *testing.T, answers ...[]byte) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func TestPromptPassword(t *testing.T) {
	stubReadPassword(t, []byte("secret"), []byte("secret"))

	var out bytes.Buffer
	pw, err := PromptPassword(&out, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pw)
	assert.Contains(t, out.String(), "Enter password: ")
	assert.Contains(t, out.String(), "Repeat password: ")
}

func TestPromptPassword_Mismatch(t *testing.T) {
	stubReadPassword(t, []byte("secret"), []byte("other"))

	_, err := PromptPassword(io.Discard, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}
