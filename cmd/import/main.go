package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"facilitydesk/config"
	"facilitydesk/di"
	"facilitydesk/helper"
	"facilitydesk/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: import <manifest.yaml>")
	}

	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	path := os.Args[1]

	manifest, err := helper.LoadManifest(path)
	if err != nil {
		log.Fatal().Err(err).Str("manifest", path).Msg("Failed to load manifest")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := di.InitializeImporter().Run(ctx, manifest, filepath.Dir(path))
	if err != nil {
		log.Fatal().Err(err).Msg("Import aborted")
	}

	helper.PrintReport(os.Stdout, outcomes)

	for _, o := range outcomes {
		if o.Failed() || o.Result.Partial() {
			stop()
			os.Exit(1)
		}
	}
}
