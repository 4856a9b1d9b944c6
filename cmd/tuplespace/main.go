package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tuplespace/internal/config"
	"tuplespace/internal/logx"
	"tuplespace/internal/node"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuplespace: %v\n", err)
		os.Exit(2)
	}

	logger, err := logx.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuplespace: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	n := node.NewNode(cfg, logger)

	errc := make(chan error, 1)
	go func() {
		errc <- n.Start()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		logger.Info("received signal", zap.String("signal", sig.String()))
		n.Stop()
	case err := <-errc:
		if err != nil {
			logger.Error("node failed", zap.Error(err))
			n.Stop()
			os.Exit(1)
		}
	}
}
