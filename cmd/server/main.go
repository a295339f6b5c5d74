package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skypro1111/rot13-echo-service/internal/config"
	"github.com/skypro1111/rot13-echo-service/internal/metrics"
	"github.com/skypro1111/rot13-echo-service/internal/server"
)

const (
	serviceName    = "rot13-echo-service"
	serviceVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults are used when empty)")
	port := flag.Int("port", 0, "UDP port to listen on, overrides server.udp_port when set")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.UDPPort = *port
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -port: %v\n", err)
			os.Exit(1)
		}
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.NewMetrics()

	udpServer := server.NewUDPServer(&cfg.Server, logger, appMetrics)
	if err := udpServer.Start(); err != nil {
		var bindErr *server.BindError
		if errors.As(err, &bindErr) {
			logger.Error("Failed to bind UDP socket",
				slog.String("address", bindErr.Address),
				slog.String("error", bindErr.Err.Error()),
			)
		} else {
			logger.Error("Failed to start UDP server", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, udpServer, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			if err := udpServer.Stop(); err != nil {
				logger.Error("Error stopping UDP server", slog.String("error", err.Error()))
			}
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return udpServer.Serve(gctx)
	})

	if httpServer != nil {
		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			return httpServer.Stop(shutdownCtx)
		})
	}

	// Serve returns nil only after gctx is done
	runErr := g.Wait()

	if err := udpServer.Stop(); err != nil {
		logger.Error("Error stopping UDP server", slog.String("error", err.Error()))
	}

	stats := udpServer.GetStatistics()
	logger.Info("Final server statistics",
		slog.Uint64("packets_received", stats.PacketsReceived),
		slog.Uint64("replies_sent", stats.RepliesSent),
		slog.Uint64("receive_errors", stats.ReceiveErrors),
		slog.Uint64("send_errors", stats.SendErrors),
	)

	if runErr != nil {
		logger.Error("Service stopped with error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
