// Command gorewrite-vet runs gorewrite recipes as a vet tool:
//
//	go vet -vettool=$(which gorewrite-vet) ./...
//
// Settings come from .gorewrite.yaml in the working directory and GOREWRITE_*
// environment variables; GOREWRITE_CONFIG names another config file.
package main

import (
	"log"
	"log/slog"
	"os"

	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/mouse-blink/gorewrite/internal/analyzer"
	"github.com/mouse-blink/gorewrite/internal/config"
)

func main() {
	cfg, err := config.Load(".", os.Getenv("GOREWRITE_CONFIG"), nil)
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	resolver := config.NewResolver(cfg, config.WithResolverLogger(logger))

	singlechecker.Main(analyzer.New(resolver, analyzer.WithLogger(logger)))
}
