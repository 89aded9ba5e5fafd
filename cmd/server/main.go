package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethan/cloudrender-relay/internal/config"
	"github.com/ethan/cloudrender-relay/internal/framesource/testpattern"
	"github.com/ethan/cloudrender-relay/internal/httpapi"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

func main() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	logFlags := logger.RegisterFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Cloud-render WebRTC media server\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		logger.PrintUsageExamples()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logConfig, err := logFlags.ToConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logger.SetDefault(log)

	log.Info("starting cloud-render relay", "log_config", logFlags.String())

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log.Info("configuration loaded",
		"listen_addr", cfg.ListenAddr,
		"public_ip", cfg.PublicIP.String(),
		"resolution", fmt.Sprintf("%dx%d", cfg.InitialWidth, cfg.InitialHeight),
		"initial_bitrate_bps", cfg.InitialBitrateBps,
		"rate_reconfig", cfg.EnableRateReconfig,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	src := testpattern.NewSource()
	srv := httpapi.NewServer(cfg, src, log)

	if err := srv.Start(ctx); err != nil {
		log.Error("failed to start signaling server", "error", err)
		os.Exit(1)
	}

	log.Info("ready - press Ctrl+C to stop")
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		log.Error("error stopping signaling server", "error", err)
	}

	log.Info("graceful shutdown complete")
}
