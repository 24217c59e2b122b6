package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/dbwire/internal/logging"
	"github.com/dmitrijs2005/dbwire/internal/scramgen"
)

func main() {
	ctx := context.Background()

	cfg, err := scramgen.ParseFlags(os.Args[1:])
	if err != nil {
		log.Printf("%v", err)
		os.Exit(2)
	}

	password, err := scramgen.PromptPassword(os.Stderr, cfg.Verify == "")
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := scramgen.Run(ctx, cfg, password, os.Stdout, logger); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
