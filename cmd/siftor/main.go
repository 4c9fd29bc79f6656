package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/common"
	"github.com/Vivek1819/siftor-backend/internal/handlers"
	"github.com/Vivek1819/siftor-backend/internal/renderer"
	"github.com/Vivek1819/siftor-backend/internal/server"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")

	config *common.Config
	logger arbor.ILogger
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Siftor version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if *configFile == "" {
		if _, err := os.Stat("siftor.toml"); err == nil {
			*configFile = "siftor.toml"
		} else if _, err := os.Stat("deployments/local/siftor.toml"); err == nil {
			*configFile = "deployments/local/siftor.toml"
		}
	}

	// Startup sequence: config (defaults -> file -> env -> CLI), logger, banner
	var err error
	config, err = common.LoadFromFile(*configFile)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Str("path", *configFile).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *serverPort, *serverHost)

	logger = common.InitLogger(config)

	common.PrintBanner(common.GetVersion())

	logger.Info().
		Str("config_file", *configFile).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Int("max_pages", config.Crawler.MaxPages).
		Dur("navigation_timeout", config.Crawler.NavigationTimeout.Duration()).
		Msg("Application configuration loaded")

	// Wire the crawl stack: one Chrome instance per session via the factory
	factory := renderer.NewChromeFactory(config.Crawler, logger)
	wsHandler := handlers.NewWebSocketHandler(config, factory, logger)
	apiHandler := handlers.NewAPIHandler(wsHandler, logger)

	srv := server.New(config, wsHandler, apiHandler, logger)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("Server goroutine panicked")
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("ws://%s:%d/ws", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}
