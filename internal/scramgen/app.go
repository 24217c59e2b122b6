// Package scramgen implements the scramgen command: it derives
// SCRAM-SHA-256 authentication verifiers from passwords, checks
// passwords against existing verifiers and optionally stores the
// connection identity as a credentials file.
package scramgen

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dbwire/internal/common"
	"github.com/dmitrijs2005/dbwire/internal/credentials"
	"github.com/dmitrijs2005/dbwire/internal/logging"
	"github.com/dmitrijs2005/dbwire/internal/scram"
)

// Config is the parsed command line.
type Config struct {
	User       string
	Iterations int
	Verify     string
	Instance   string
	OutFile    string
	Host       string
	Port       int
	Database   string
}

// ParseFlags parses the scramgen command line.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("scramgen", flag.ContinueOnError)
	fs.StringVar(&cfg.User, "user", "", "user name the verifier is for")
	fs.IntVar(&cfg.Iterations, "i", scram.DefaultIterations, "PBKDF2 iteration count")
	fs.StringVar(&cfg.Verify, "verify", "", "check the password against this verifier instead of generating one")
	fs.StringVar(&cfg.Instance, "instance", "", "also store a credentials file for this instance name")
	fs.StringVar(&cfg.OutFile, "o", "", "credentials file path (overrides the per-instance default)")
	fs.StringVar(&cfg.Host, "host", "", "host to record in the credentials file")
	fs.IntVar(&cfg.Port, "port", 0, "port to record in the credentials file")
	fs.StringVar(&cfg.Database, "database", "", "database to record in the credentials file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Verify == "" && cfg.User == "" {
		return nil, errors.New("-user is required")
	}
	return cfg, nil
}

// Run executes one scramgen invocation. The password is wiped before
// returning unless it is persisted into a credentials file.
func Run(ctx context.Context, cfg *Config, password []byte, out io.Writer, log logging.Logger) error {
	if cfg.Verify != "" {
		return runVerify(cfg, password, out)
	}
	defer common.WipeByteArray(password)

	v, err := scram.BuildVerifier(string(password), nil, cfg.Iterations)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, v.String())
	log.Debug(ctx, "verifier generated", "user", cfg.User, "iterations", cfg.Iterations)

	path := cfg.OutFile
	if path == "" && cfg.Instance != "" {
		path, err = credentials.Path(cfg.Instance)
		if err != nil {
			return err
		}
	}
	if path == "" {
		return nil
	}

	creds := &credentials.Credentials{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: string(password),
		Database: cfg.Database,
	}
	if err := credentials.Write(path, creds); err != nil {
		return err
	}
	log.Info(ctx, "credentials stored", "path", path)
	return nil
}

func runVerify(cfg *Config, password []byte, out io.Writer) error {
	defer common.WipeByteArray(password)

	ok, err := scram.VerifyPassword(string(password), cfg.Verify)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrAuthenticationFailed
	}
	fmt.Fprintln(out, "password OK")
	return nil
}
