package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s <config_file>\n", os.Args[0])
		os.Exit(1)
	}
	configPath := os.Args[1]

	cfg, err := LoadConfig(configPath)
	if err != nil {
		// No logger exists yet (its level comes from the config we just
		// failed to load), so this one line goes straight to stderr.
		fmt.Fprintf(os.Stderr, "[main] %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[main] %v\n", err)
		os.Exit(1)
	}

	logger.Infof("[main] listen port: %d", cfg.Port)
	logger.Infof("[main] buffer size: %d", cfg.BufferSize)
	logger.Infof("[main] log level: %s", cfg.LogLevel)

	acceptor, err := NewAcceptor(cfg, logger)
	if err != nil {
		logCritical(logger, "failed to start acceptor: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go acceptor.Serve(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Infof("[main] received signal %s, shutting down", sig)
	cancel()
	acceptor.Close()
}
