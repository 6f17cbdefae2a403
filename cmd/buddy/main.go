// Buddy - AI desktop companion with live voice conversation,
// desktop tools, and a knowledge base fed from user documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/vbharat/go-buddy/internal/config"
	"github.com/vbharat/go-buddy/internal/log"
	"github.com/vbharat/go-buddy/pkg/buddy"
	"github.com/vbharat/go-buddy/pkg/web"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	app, err := buddy.New(cfg, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = app.Shutdown() }()

	server := web.NewServer(app, strconv.Itoa(cfg.HTTPPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.CheckOllama(ctx); err != nil {
		logger.Warn("local fallback model unavailable", "url", cfg.OllamaURL, "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "port", cfg.HTTPPort)
		errCh <- server.Start()
	}()

	if cfg.GoogleAPIKey != "" {
		if err := app.StartSession(ctx, ""); err != nil {
			logger.Error("could not start live session", "error", err)
		}
	} else {
		logger.Warn("GOOGLE_API_KEY not set, start a session once configured")
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("web server failed", "error", err)
		}
	}

	if err := server.Shutdown(); err != nil {
		logger.Warn("web server shutdown", "error", err)
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	debug := flag.Bool("debug", cfg.Debug, "Enable verbose debug logging")
	persona := flag.String("persona", cfg.Persona, "Companion persona: sakura or haruki")
	voice := flag.String("voice", cfg.Voice, "Override the persona's prebuilt voice")
	port := flag.Int("port", cfg.HTTPPort, "Dashboard HTTP port")
	backend := flag.String("audio", cfg.AudioBackend, "Audio backend: auto, arecord, ffmpeg, mock")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Persona = *persona
	cfg.Voice = *voice
	cfg.HTTPPort = *port
	cfg.AudioBackend = *backend

	if cfg.Debug && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
