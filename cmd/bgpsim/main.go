package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/route-beacon/bgpsim/internal/config"
	"github.com/route-beacon/bgpsim/internal/eventbus"
	"github.com/route-beacon/bgpsim/internal/httpapi"
	"github.com/route-beacon/bgpsim/internal/metrics"
	"github.com/route-beacon/bgpsim/internal/store"
	"github.com/route-beacon/bgpsim/internal/validate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe()
	case "migrate":
		runMigrate()
	case "validate-config":
		runValidateConfig()
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: bgpsim <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve             Start the simulation HTTP service")
	fmt.Println("  migrate           Run database migrations")
	fmt.Println("  validate-config   Validate a JSON config file and exit")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>   Path to configuration YAML file")
	fmt.Println("  --log-level <lvl> Override log level (debug, info, warn, error)")
}

func parseFlags(args []string) (configPath string, logLevel string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--log-level":
			if i+1 < len(args) {
				logLevel = args[i+1]
				i++
			}
		}
	}
	return
}

func loadConfig(args []string) (*config.Config, *zap.Logger) {
	configPath, logLevelOverride := parseFlags(args)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if logLevelOverride != "" {
		cfg.Service.LogLevel = logLevelOverride
	}

	logger := initLogger(cfg.Service.LogLevel)
	return cfg, logger
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zap.DebugLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func migrationsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

func limitsFromConfig(cfg *config.Config) validate.Limits {
	return validate.Limits{
		MaxNodes:    cfg.Limits.MaxNodes,
		MaxPrefixes: cfg.Limits.MaxPrefixes,
	}
}

func runServe() {
	cfg, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	metrics.Register()

	logger.Info("starting bgpsim",
		zap.String("instance_id", cfg.Service.InstanceID),
		zap.String("http_listen", cfg.Service.HTTPListen),
	)

	var runStore *store.Writer
	if cfg.Postgres.DSN != "" {
		ctx := context.Background()
		pool, err := store.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := store.RunMigrations(ctx, pool, migrationsDir(), logger.Named("store.migrate")); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}

		runStore = store.NewWriter(pool, logger.Named("store.writer"))
		logger.Info("run persistence enabled")
	} else {
		logger.Info("run persistence disabled (postgres.dsn not set)")
	}

	var publisher *eventbus.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		tlsCfg, err := cfg.Kafka.BuildTLSConfig()
		if err != nil {
			logger.Fatal("failed to build Kafka TLS config", zap.Error(err))
		}
		saslMech := cfg.Kafka.BuildSASLMechanism()

		publisher, err = eventbus.New(cfg.Kafka.Brokers, cfg.Kafka.ClientID, cfg.Kafka.Topic, tlsCfg, saslMech, logger.Named("eventbus"))
		if err != nil {
			logger.Fatal("failed to create Kafka producer", zap.Error(err))
		}
		defer publisher.Close()
		logger.Info("timeline publishing enabled", zap.String("topic", cfg.Kafka.Topic))
	} else {
		logger.Info("timeline publishing disabled (kafka.brokers not set)")
	}

	// httpapi.NewServer takes interfaces; a nil *store.Writer or
	// *eventbus.Publisher held in an interface variable is non-nil, so
	// pass untyped nil explicitly when the subsystem is disabled.
	var storeArg httpapi.RunPersister
	if runStore != nil {
		storeArg = runStore
	}
	var pubArg httpapi.TimelinePublisher
	if publisher != nil {
		pubArg = publisher
	}

	httpServer := httpapi.NewServer(cfg.Service.HTTPListen, limitsFromConfig(cfg), storeArg, pubArg, logger.Named("httpapi"))
	if err := httpServer.Start(); err != nil {
		logger.Fatal("failed to start HTTP server", zap.Error(err))
	}

	logger.Info("bgpsim HTTP server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownTimeout := time.Duration(cfg.Service.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("bgpsim stopped")
}

func runMigrate() {
	cfg, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	if cfg.Postgres.DSN == "" {
		logger.Fatal("migrate requires postgres.dsn to be set")
	}

	logger.Info("running migrations", zap.String("dsn", redactDSN(cfg.Postgres.DSN)))

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := store.RunMigrations(ctx, pool, migrationsDir(), logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migrations complete")
}

func runValidateConfig() {
	args := os.Args[2:]
	var path string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			path = args[i+1]
			i++
		} else if path == "" && !strings.HasPrefix(args[i], "--") {
			path = args[i]
		}
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: bgpsim validate-config <file.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", path, err)
		os.Exit(1)
	}

	var req validate.Request
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(os.Stderr, "parsing %s: %v\n", path, err)
		os.Exit(1)
	}

	limits := validate.Limits{MaxNodes: 100, MaxPrefixes: 50}
	cfg, err := validate.Config(req, limits)
	if err != nil {
		fmt.Printf("invalid: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("valid: %d nodes, %d links, scenario %s\n", len(cfg.Nodes), len(cfg.Links), cfg.Scenario)
}

func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		re := regexp.MustCompile(`password\s*=\s*\S+`)
		return re.ReplaceAllString(dsn, "password=***")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
