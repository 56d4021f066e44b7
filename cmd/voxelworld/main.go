package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxelworld/internal/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to voxel world configuration file")
	flag.Parse()

	if wrote, err := writeConfigFromEnv(cfgPath); err != nil {
		log.Fatalf("sync config from environment: %v", err)
	} else if wrote {
		log.Printf("wrote configuration from environment to %s", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(log.Writer(), "voxelworld ", log.LstdFlags|log.Lmicroseconds)
	eng, err := newEngine(cfg, logger)
	if err != nil {
		log.Fatalf("initialise engine: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := eng.Run(ctx); err != nil {
		log.Fatalf("engine exited with error: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			return
		}

		// Ensure the process terminates if shutdown stalls.
		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
