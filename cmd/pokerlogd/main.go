package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/felixgeelhaar/pokerlog/internal/daemon"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	pidFileName = "pokerlogd.pid"
	logFileName = "pokerlogd.log"

	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

// flags override ~/.pokerlog/config.yaml and the environment.
type flags struct {
	port     int
	bind     string
	logLevel string
	debug    bool
	quiet    bool
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "pokerlogd",
		Short: "The pokerlog backend daemon",
		Long: `pokerlogd serves the pokerlog HTTP API: accounts, sessions and hands.

Settings come from ~/.pokerlog/config.yaml, then the environment (PORT, BIND,
STORAGE_DRIVER, DATABASE_PATH, DATABASE_URL, RABBITMQ_URL, ...), then flags.
Logs are written as JSON to ~/.pokerlog/logs/pokerlogd.log.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, f)
		},
	}

	root.PersistentFlags().IntVar(&f.port, "port", 0, "listen port")
	root.PersistentFlags().StringVar(&f.bind, "bind", "", "listen address")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "debug logging, no rate limit")
	root.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "log to the file only")

	root.AddCommand(migrateCmd(&f))
	return root
}

// loadConfig layers flags over the environment and the local config file.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, string, error) {
	dir, err := config.EnsurePokerlogDir()
	if err != nil {
		return nil, "", fmt.Errorf("ensure pokerlog dir: %w", err)
	}

	local, err := config.LoadLocalConfig()
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.LoadWithLocal(local)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("bind") {
		cfg.Bind = f.bind
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}

func serve(cmd *cobra.Command, f flags) error {
	cfg, dir, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logFile, err := setupLogging(filepath.Join(dir, "logs", logFileName), levelFor(cfg), !f.quiet)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	pidPath := filepath.Join(dir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := daemon.NewServer(ctx, daemon.ServerConfig{Config: cfg})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case err := <-serveErr:
		// Listening failed; release the store before reporting
		shutdown(server)
		if err == nil {
			err = errors.New("server exited unexpectedly")
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("received signal, shutting down")
	}

	shutdown(server)
	if err := <-serveErr; err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("daemon stopped")
	return nil
}

func shutdown(server *daemon.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}
