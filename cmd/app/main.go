package main

import (
	"facilitydesk/config"
	"facilitydesk/di"
	"facilitydesk/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http := di.InitializeService()
	http.Serve()
}
