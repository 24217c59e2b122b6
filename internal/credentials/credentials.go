// Package credentials reads and writes per-instance credential files:
// small JSON documents holding the connection identity a client uses
// after a successful handshake setup. Files live under the user config
// directory, one per named instance.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPort is assumed when a credentials file omits the port.
const DefaultPort = 5656

// Credentials is the on-disk document. User is required; Port defaults
// to DefaultPort; the rest are optional.
type Credentials struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// Validate normalizes and checks a credentials document. A zero port is
// replaced with DefaultPort; out-of-range ports and a missing user are
// errors.
func Validate(c *Credentials) error {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("invalid `port` value")
	}
	if c.User == "" {
		return errors.New("`user` key is required")
	}
	return nil
}

// Read loads and validates the credentials file at path.
func Read(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read credentials at %s: %w", path, err)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cannot read credentials at %s: %w", path, err)
	}
	if err := Validate(&c); err != nil {
		return nil, fmt.Errorf("cannot read credentials at %s: %w", path, err)
	}
	return &c, nil
}

// Write validates and stores a credentials file at path, creating
// parent directories as needed. Credential files are private to the
// user.
func Write(path string, c *Credentials) error {
	if err := Validate(c); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Path resolves the credentials file for a named instance under the
// user config directory.
func Path(instanceName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "dbwire", "credentials", instanceName+".json"), nil
}
