// Package typedesc implements the typedesc command: it decodes a
// captured type-descriptor blob and prints the JSON-Schema document
// describing the query's input and output.
package typedesc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/dbwire/internal/descriptor"
	"github.com/dmitrijs2005/dbwire/internal/logging"
	"github.com/dmitrijs2005/dbwire/internal/schema"
)

// Config is the parsed command line. OutputFile is the positional
// argument: the output-descriptor blob captured from a server.
type Config struct {
	OutputFile  string
	InputFile   string
	Hex         bool
	Name        string
	Cardinality string
}

// ParseFlags parses the typedesc command line.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("typedesc", flag.ContinueOnError)
	fs.StringVar(&cfg.InputFile, "in", "", "input-descriptor blob for the query arguments")
	fs.BoolVar(&cfg.Hex, "hex", false, "blobs are hex encoded text rather than raw bytes")
	fs.StringVar(&cfg.Name, "name", "Result", "definition name for the top-level output type")
	fs.StringVar(&cfg.Cardinality, "cardinality", "A", "result cardinality byte: n, o, A, m or M")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, errors.New("exactly one output-descriptor file is required")
	}
	cfg.OutputFile = fs.Arg(0)

	if len(cfg.Cardinality) != 1 {
		return nil, fmt.Errorf("invalid cardinality %q", cfg.Cardinality)
	}
	return cfg, nil
}

// Run decodes the configured blobs and writes the schema document to
// out as indented JSON.
func Run(ctx context.Context, cfg *Config, out io.Writer, log logging.Logger) error {
	card, err := descriptor.CardinalityFromByte(cfg.Cardinality[0])
	if err != nil {
		return err
	}

	outDesc, err := loadDescriptor(ctx, cfg.OutputFile, cfg.Hex, log)
	if err != nil {
		return err
	}

	var inDesc descriptor.Desc
	if cfg.InputFile != "" {
		inDesc, err = loadDescriptor(ctx, cfg.InputFile, cfg.Hex, log)
		if err != nil {
			return err
		}
	}

	doc, err := schema.Describe(outDesc, inDesc, cfg.Name, card)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func loadDescriptor(ctx context.Context, path string, isHex bool, log logging.Logger) (descriptor.Desc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isHex {
		text := strings.Join(strings.Fields(string(data)), "")
		data, err = hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("cannot decode hex blob %s: %w", path, err)
		}
	}

	table, err := descriptor.DecodeTable(data)
	if err != nil {
		return nil, fmt.Errorf("cannot decode descriptor blob %s: %w", path, err)
	}
	log.Debug(ctx, "descriptor blob decoded", "path", path, "codecs", len(table))
	return table[len(table)-1], nil
}
