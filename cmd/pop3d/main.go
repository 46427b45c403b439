// Command pop3d serves mail from a filesystem-backed Maildir-like store
// over the minimal POP3 command set (RFC 1939).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hearthmail/pop3d/internal/config"
	"github.com/hearthmail/pop3d/internal/logging"
	"github.com/hearthmail/pop3d/internal/metrics"
	"github.com/hearthmail/pop3d/internal/pop3"
	"github.com/hearthmail/pop3d/internal/server"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		collector = metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
	}

	state := pop3.NewServerState(pop3.ServerConfig{
		MaildirsRoot: cfg.Maildirs,
		BufferSize:   cfg.BufferSize,
		Verbose:      cfg.LogLevel == "debug",
		Silent:       cfg.LogLevel == "error",
	})

	handler := pop3.Handler(pop3.HandlerConfig{
		Hostname:          cfg.Hostname,
		Banner:            cfg.Banner,
		BufferSize:        cfg.BufferSize,
		ConnectionTimeout: cfg.Timeouts.ConnectionTimeout(),
		CommandTimeout:    cfg.Timeouts.CommandTimeout(),
	}, state, collector)

	srv, err := server.New(server.Config{
		Cfg:     &cfg,
		Logger:  logger,
		Handler: server.ConnectionHandler(handler),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewPrometheusServer(cfg.Metrics.Address, cfg.Metrics.Path)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", "error", err.Error())
			}
		}()
		logger.Info("metrics server started", "address", cfg.Metrics.Address, "path", cfg.Metrics.Path)
	}

	logger.Info("starting pop3d", "hostname", cfg.Hostname, "listeners", len(cfg.Listeners))

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("pop3d stopped")
}
