package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nftstaking/config"
	"nftstaking/core"
	"nftstaking/core/genesis"
	"nftstaking/indexer"
	nativecommon "nftstaking/native/common"
	"nftstaking/observability/logging"
	telemetry "nftstaking/observability/otel"
	"nftstaking/rpc"
	"nftstaking/storage"
)

const (
	serviceName    = "nftstaked"
	genesisPathEnv = "NFTSTAKE_GENESIS"
	envNameEnv     = "NFTSTAKE_ENV"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis spec (overrides NFTSTAKE_GENESIS and config GenesisFile)")
	exportPath := flag.String("export-history", "", "Write the indexed event history to this parquet file and exit")
	exportConfig := flag.String("export-config", "", "Restrict -export-history to one pool id")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	env := cfg.Environment
	if override := strings.TrimSpace(os.Getenv(envNameEnv)); override != "" {
		env = override
	}
	logger, logCloser := logging.SetupWithOptions(serviceName, env, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *exportPath != "" {
		rows, err := exportHistory(ctx, cfg, *exportPath, *exportConfig, logger)
		if err != nil {
			logger.Error("history export failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("history exported", slog.String("path", *exportPath), slog.Int("rows", rows))
		return
	}

	genesisPath := resolveGenesisPath(*genesisFlag, cfg.GenesisFile, os.LookupEnv)
	if err := run(ctx, cfg, env, genesisPath, logger); err != nil {
		logger.Error("nftstaked terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, env, genesisPath string, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db,
		core.WithLogger(logger.With("component", "node")),
		core.WithPauses(nativecommon.NewPauses(cfg.PausedModules...)))
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	if err := applyGenesis(node, genesisPath, logger); err != nil {
		return err
	}

	var ix *indexer.Indexer
	if cfg.Indexer.Enabled {
		gdb, err := indexer.Open(cfg.Indexer.DSN)
		if err != nil {
			return fmt.Errorf("open indexer: %w", err)
		}
		ix, err = indexer.New(gdb, logger.With("component", "indexer"))
		if err != nil {
			return fmt.Errorf("create indexer: %w", err)
		}
		ix.Start(ctx)
		unsubscribe := node.Subscribe(ix)
		defer func() {
			unsubscribe()
			ix.Close()
		}()
	}

	api := rpc.NewServer(node, ix, rpc.ServerConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		JWT: rpc.JWTConfig{
			Enabled:  cfg.Auth.Required,
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		},
	}, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.HTTPIdleTimeout) * time.Second,
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	logger.Info("nftstaked running",
		slog.String("listen", listener.Addr().String()),
		slog.String("backend", cfg.DBBackend),
		slog.Bool("indexer", ix != nil))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.DBBackend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendLevelDB, "":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewLevelDB(cfg.DBPath())
	default:
		return nil, fmt.Errorf("unknown db backend %q", cfg.DBBackend)
	}
}

// applyGenesis seeds an empty store. A store that already carries a genesis is
// left untouched.
func applyGenesis(node *core.Node, path string, logger *slog.Logger) error {
	if path == "" {
		logger.Warn("no genesis file configured; starting with the stored ledger")
		return nil
	}
	spec, err := genesis.LoadGenesisSpec(path)
	if err != nil {
		return fmt.Errorf("load genesis spec: %w", err)
	}
	err = node.ApplyGenesis(spec)
	switch {
	case errors.Is(err, core.ErrGenesisApplied):
		logger.Info("genesis already applied", slog.String("path", path))
		return nil
	case err != nil:
		return fmt.Errorf("apply genesis: %w", err)
	}
	return nil
}

type envLookupFunc func(string) (string, bool)

func resolveGenesisPath(cliPath, cfgPath string, lookup envLookupFunc) string {
	if trimmed := strings.TrimSpace(cliPath); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(cfgPath)
}

func exportHistory(ctx context.Context, cfg *config.Config, path, pool string, logger *slog.Logger) (int, error) {
	if !cfg.Indexer.Enabled {
		return 0, errors.New("indexer disabled in config")
	}
	gdb, err := indexer.Open(cfg.Indexer.DSN)
	if err != nil {
		return 0, fmt.Errorf("open indexer: %w", err)
	}
	ix, err := indexer.New(gdb, logger.With("component", "indexer"))
	if err != nil {
		return 0, err
	}
	return ix.ExportParquet(ctx, path, indexer.Query{Config: strings.TrimSpace(pool)})
}
