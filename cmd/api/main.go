package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freeeve/chesscoach/internal/coach"
	"github.com/freeeve/chesscoach/internal/config"
	"github.com/freeeve/chesscoach/internal/eco"
	"github.com/freeeve/chesscoach/internal/engine"
	"github.com/freeeve/chesscoach/internal/httpapi"
	"github.com/freeeve/chesscoach/internal/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logger := logx.NewLogger(os.Stderr, "info")
		logger.Error().Err(err).Msg("api stopped")
		stop()
		os.Exit(1)
	}
}

// run serves the API until ctx is done.
func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		// Config file; flags below override it
		configPath = fs.String("config", config.DefaultPath(), "YAML config file")

		// Server
		addr     = fs.String("addr", "", "listen address (overrides config)")
		logLevel = fs.String("log-level", "", "trace, debug, info, warn or error (overrides config)")

		// Local engine, used after the remote providers
		stockfishPath = fs.String("stockfish", "", "path to a UCI engine executable (also STOCKFISH_PATH)")

		// ECO settings
		ecoDir = fs.String("eco-dir", "", "Directory containing ECO .tsv files (overrides config)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if envPath := os.Getenv("STOCKFISH_PATH"); envPath != "" && *stockfishPath == "" {
		*stockfishPath = envPath
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *ecoDir != "" {
		cfg.ECODir = *ecoDir
	}

	logger := logx.NewLogger(out, cfg.LogLevel)

	providers, err := cfg.BuildProviders(logger.With().Str("component", "provider").Logger(), &http.Client{}, *stockfishPath)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}
	client := engine.NewClient(logger.With().Str("component", "engine").Logger(), providers...)
	names := client.Providers()
	if len(names) == 0 {
		logger.Warn().Msg("no providers enabled, every analysis will fail")
	}
	logger.Info().Strs("providers", names).Msg("provider chain ready")

	// Load ECO opening database
	var book coach.OpeningBook
	if cfg.ECODir != "" {
		ecoDB := eco.NewDatabase()
		if err := ecoDB.LoadDir(cfg.ECODir); err != nil {
			logger.Warn().Err(err).Str("dir", cfg.ECODir).Msg("failed to load ECO database")
		} else {
			logger.Info().Int("openings", ecoDB.Count()).Msg("ECO database loaded")
			book = ecoDB
		}
	}
	svc := coach.NewService(logger.With().Str("component", "coach").Logger(), client, book)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:      httpapi.NewRouter(logger, svc, names),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("api listening")
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
