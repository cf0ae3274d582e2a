// Package main implements the repoingest CLI: ingest a repository from a
// GitHub URL or local path, optionally clone it, or serve the same workflow
// over HTTP.
//
// Usage:
//
//	repoingest --repo <url-or-path> [--token <tok>]   Single ingestion
//	repoingest --batch repos.yaml [--workers N]       Batch ingestion
//	repoingest --serve [--addr host:port]             HTTP server
//	repoingest                                        Interactive prompt
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repoingest/internal/config"
	"repoingest/internal/ingest"
	"repoingest/internal/server"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		repo        = flag.String("repo", "", "Git URL or local path to repo")
		token       = flag.String("token", "", "GitHub token for private repos (optional)")
		batchPath   = flag.String("batch", "", "YAML manifest of repos to ingest")
		workers     = flag.Int("workers", 1, "Concurrent ingestions in batch mode")
		serve       = flag.Bool("serve", false, "Start the HTTP server")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		configPath  = flag.String("config", "repoingest.toml", "Path to repoingest.toml")
		noClone     = flag.Bool("no-clone", false, "Skip cloning remote repos after ingestion")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `repoingest - ingest repositories with gitingest and clone them locally

Usage:
  repoingest [options]

Options:
  --repo      Git URL or local path to ingest
  --token     GitHub token for private repos
  --batch     YAML manifest of repos to ingest
  --workers   Concurrent ingestions in batch mode (default 1)
  --serve     Start the HTTP server
  --addr      HTTP listen address (overrides config)
  --config    Path to repoingest.toml (default: ./repoingest.toml)
  --no-clone  Skip cloning remote repos after ingestion
  --verbose   Enable debug logging
  --version   Show version and exit

With no mode option, repoingest prompts interactively for the input.

Examples:
  repoingest --repo https://github.com/owner/repo.git
  repoingest --repo ~/projects/myrepo
  repoingest --batch repos.yaml --workers 4
  repoingest --serve --addr 0.0.0.0:8000

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("repoingest version %s\n", version)
		os.Exit(0)
	}

	setupLogging(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *noClone {
		cfg.Clone = false
	}

	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, shutting down gracefully...", "signal", sig)
		cancel()
	}()

	switch {
	case *serve:
		runServe(ctx, cfg, *addr)
	case *batchPath != "":
		runBatch(ctx, cfg, *batchPath, *workers)
	case *repo != "":
		runOnce(ctx, cfg, *repo, *token)
	default:
		input, tok := promptRepoInput(bufio.NewReader(os.Stdin))
		runOnce(ctx, cfg, input, tok)
	}
}

// setupLogging configures the process-wide slog handler once at startup.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose || os.Getenv("REPOINGEST_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// runOnce ingests a single repository and prints the result.
func runOnce(ctx context.Context, cfg config.Config, repoInput, token string) {
	result := ingest.NewDefault(cfg).Ingest(ctx, repoInput, token)

	fmt.Println("\nIngest result:")
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}

// runBatch ingests every repo in a manifest and prints a summary.
func runBatch(ctx context.Context, cfg config.Config, manifestPath string, workers int) {
	m, err := ingest.LoadManifest(manifestPath)
	if err != nil {
		slog.Error("loading batch manifest", "path", manifestPath, "error", err)
		os.Exit(1)
	}

	report := ingest.NewDefault(cfg).RunBatch(ctx, m, workers)

	fmt.Printf("\nBatch: %s\n", manifestPath)
	fmt.Printf("Total repos: %d\n", report.TotalRepos)
	fmt.Printf("Succeeded: %d\n", report.Succeeded)
	fmt.Printf("Failed: %d\n", report.Failed)
	fmt.Printf("Duration: %.2fs\n", report.TotalDurationSec)

	for _, o := range report.Outcomes {
		if o.Result != nil && !o.Result.Success {
			fmt.Printf("  FAILED %s: %s\n", o.Ref, o.Result.Error)
		}
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// runServe starts the HTTP server and blocks until the context is cancelled.
func runServe(ctx context.Context, cfg config.Config, addrOverride string) {
	addr := cfg.Addr()
	if addrOverride != "" {
		addr = addrOverride
	}

	srv, err := server.NewServer(ingest.NewDefault(cfg), server.NewMetrics(), addr)
	if err != nil {
		slog.Error("creating server", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
