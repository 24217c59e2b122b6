package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "creds", "local.json")
	in := &Credentials{
		Host:     "db.example.com",
		Port:     10700,
		User:     "app",
		Password: "s3cret",
		Database: "main",
	}

	require.NoError(t, Write(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestValidate_PortDefaults(t *testing.T) {
	t.Parallel()

	c := &Credentials{User: "app"}
	require.NoError(t, Validate(c))
	assert.Equal(t, DefaultPort, c.Port)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		c    Credentials
		want string
	}{
		{"negative port", Credentials{User: "app", Port: -1}, "invalid `port` value"},
		{"port too large", Credentials{User: "app", Port: 70000}, "invalid `port` value"},
		{"missing user", Credentials{Port: 5656}, "`user` key is required"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(&tc.c)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestWrite_RejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	err := Write(path, &Credentials{})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "invalid credentials must not be written")
}

func TestRead_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.json")
	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read credentials at")
}

func TestRead_InvalidJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read credentials at")
}

func TestRead_InvalidDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nouser.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 5656}`), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`user` key is required")
}

func TestPath(t *testing.T) {
	t.Parallel()

	p, err := Path("local")
	require.NoError(t, err)
	want := filepath.Join("dbwire", "credentials", "local.json")
	assert.True(t, strings.HasSuffix(p, want), "got %q", p)
}
