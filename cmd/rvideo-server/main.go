package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxayo/go-rvideo"
	"github.com/alxayo/go-rvideo/internal/logger"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	server := rvideo.NewServer(cfg.timeout)
	server.SetMaxClients(cfg.maxClients)

	for _, spec := range cfg.streams {
		format, err := resolveFormat(spec.format)
		if err != nil {
			log.Error("invalid stream spec", "error", err)
			os.Exit(2)
		}
		stream, err := server.AddStream(format, spec.width, spec.height)
		if err != nil {
			log.Error("failed to add stream", "error", err)
			os.Exit(1)
		}
		log.Info("stream added", "stream_id", stream.ID(), "format", spec.format, "width", spec.width, "height", spec.height)
		if cfg.demo {
			go runDemoProducer(stream, format, spec.width, spec.height, log)
		}
	}

	if err := server.Serve(cfg.listenAddr); err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	log.Info("server started", "addr", server.Addr().String(), "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := server.Stop(); err != nil {
			log.Error("server stop error", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("server stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}
