package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/dbwire/internal/logging"
	"github.com/dmitrijs2005/dbwire/internal/typedesc"
)

func main() {
	ctx := context.Background()

	cfg, err := typedesc.ParseFlags(os.Args[1:])
	if err != nil {
		log.Printf("%v", err)
		os.Exit(2)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := typedesc.Run(ctx, cfg, os.Stdout, logger); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
