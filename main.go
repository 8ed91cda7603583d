package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"oasyspark/pkg/assistant"
	"oasyspark/pkg/catalog"
	"oasyspark/pkg/config"
	"oasyspark/pkg/explorer"
	"oasyspark/pkg/logging"
	"oasyspark/pkg/server"
	"oasyspark/pkg/session"
	"oasyspark/pkg/tui"
	"oasyspark/pkg/wallet"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Test configuration and exit")
	testLongFlag := flag.Bool("test", false, "Test configuration and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	dryRunFlag := flag.Bool("dry-run", false, "Perform a trial run with no changes made")
	configFlag := flag.String("config", "", "Path to configuration file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	restoreFlag := flag.Bool("restore", false, "Restore the last configuration backup and exit")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	portFlag := flag.Int("port", 0, "Port for API server (overrides config)")
	addressFlag := flag.String("address", "", "Connect to this address in watch-only mode at start")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("oasyspark version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	if *restoreFlag {
		backup, err := config.RestoreLastBackup(path)
		if err != nil {
			fmt.Printf("Failed to restore backup: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Restored %s from %s\n", path, backup)
		os.Exit(0)
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}
	if *portFlag != 0 {
		cfg.Port = *portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *testFlag || *testLongFlag {
		_, ok := runConfigTest(ctx, cfg, path, testOptions{JSON: *jsonFlag, DryRun: *dryRunFlag}, os.Stdout)
		if !ok {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if !checkStartupConfig(cfg, path, os.Stdout) {
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg, *serverFlag)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logging.SetDefault(logger)

	store, cleanup := newStore(cfg, logger)
	defer cleanup()

	concierge := newConcierge(ctx, cfg, logger)

	srv := server.NewServer(store, concierge, logger)
	serverErr := serveAPI(ctx, srv, cfg.Port, logger)

	if *addressFlag != "" {
		go func() {
			_ = store.ConnectManual(ctx, *addressFlag)
		}()
	}

	if *serverFlag {
		fmt.Printf("Running in server mode on port %d...\n", cfg.Port)
		select {
		case <-ctx.Done():
		case err := <-serverErr:
			if err != nil {
				os.Exit(1)
			}
		}
		return
	}

	if err := tui.Start(store, concierge, logger, Version); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}

type apiServer interface {
	Start(ctx context.Context, port int) error
}

// serveAPI runs srv in the background. A start or serve failure is logged
// right away, since in dashboard mode nothing waits on the returned channel.
func serveAPI(ctx context.Context, srv apiServer, port int, logger *logging.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		err := srv.Start(ctx, port)
		if err != nil {
			logger.Error("server stopped", "port", port, "error", err)
		}
		errc <- err
	}()
	return errc
}

// newLogger logs to stderr in server mode and to a file otherwise, so the
// dashboard screen stays clean.
func newLogger(cfg config.Config, headless bool) (*logging.Logger, func(), error) {
	if headless {
		return logging.New(logging.Config{Level: cfg.LogLevel}), func() {}, nil
	}
	logPath, err := config.GetLogPath()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(logging.Config{Level: cfg.LogLevel, Output: f}), func() { _ = f.Close() }, nil
}

func newStore(cfg config.Config, logger *logging.Logger) (*session.Store, func()) {
	var provider wallet.AccountProvider = wallet.NoProvider{}
	cleanup := func() {}
	if cfg.WalletRPCURL != "" {
		p := wallet.NewRPCProvider(cfg.WalletRPCURL)
		provider = p
		cleanup = p.Close
	}

	var identity wallet.IdentityContext = wallet.NoIdentity{}
	if cfg.Social != nil {
		identity = wallet.StaticIdentity{User: &wallet.HostIdentity{
			FID:            cfg.Social.FID,
			Username:       cfg.Social.Username,
			DisplayName:    cfg.Social.DisplayName,
			CustodyAddress: cfg.Social.CustodyAddress,
		}}
	}

	store := session.NewStore(session.Options{
		Fetcher:     explorer.NewClient(cfg.ExplorerURL, cfg.HTTPTimeout(), logger),
		Provider:    provider,
		Identity:    identity,
		SocialDelay: cfg.SocialDelay(),
		ChainID:     cfg.ChainID,
		StalePolicy: session.ParseStalePolicy(cfg.StalePolicy),
		Logger:      logger,
	})
	return store, cleanup
}

func newConcierge(ctx context.Context, cfg config.Config, logger *logging.Logger) *assistant.Concierge {
	var gen assistant.Generator
	g, err := assistant.NewGemini(ctx, cfg.APIKey, cfg.AssistantModel)
	switch {
	case errors.Is(err, assistant.ErrNoCredential):
		logger.Warn("concierge disabled", "reason", err)
	case err != nil:
		logger.Error("concierge unavailable", "error", err)
	default:
		gen = g
	}
	return assistant.New(gen, catalog.Games(), logger)
}
