package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"proxyharvest/harvest"
	"proxyharvest/harvest/fetch"
	"proxyharvest/internal/shared/config"
	"proxyharvest/internal/shared/logger"
	"proxyharvest/internal/shared/types"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "harvester.ini")

	cfg := types.DefaultConfig()
	if err := config.LoadIni(cfg, iniPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.NewTelegramFetcher(time.Duration(cfg.HarvestConf.FetchTimeoutSeconds) * time.Second)
	mgr := harvest.NewManager(cfg, fetcher)

	if err := mgr.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Run interrupted.")
			os.Exit(130)
		}
		logger.Fatal().Err(err).Msg("Run aborted.")
	}
}
