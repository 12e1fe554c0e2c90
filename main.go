package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/marcward/homegame/domain"
	"github.com/marcward/homegame/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"homegame.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Addr = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		fmt.Printf("Invalid log level %q: %v\n", cfg.Server.LogLevel, err)
		kctx.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	lobbyCfg, err := cfg.LobbyConfig()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		kctx.Exit(1)
	}

	lobby := domain.NewLobby(lobbyCfg, nil, logger)
	srv := server.NewServer(cfg, lobby, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited", "err", err)
		kctx.Exit(1)
	}
}
