package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"rfboard/config"
	"rfboard/internal/api"
	"rfboard/internal/demo"
	"rfboard/internal/ingest"
	"rfboard/internal/reconcile"
	"rfboard/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "rfboard ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if !cfg.Demo.Enabled && cfg.Ingest.BaseURL == "" {
		logger.Fatalf("ingest base_url must be configured unless demo mode is enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.New()
	logger.Println("state store initialized")

	hub := api.NewHub(appStore)

	// workers tracks the background loops so shutdown can wait for them;
	// once they return, no further store mutation can happen.
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		hub.Run(ctx)
	}()

	var backend reconcile.Backend
	if cfg.Demo.Enabled {
		seed := cfg.Demo.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		engine := demo.New(appStore, cfg.Demo.Slots, rand.NewSource(seed))
		workers.Add(1)
		go func() {
			defer workers.Done()
			engine.Run(ctx)
		}()
		backend = demoBackend{}
		logger.Printf("demo mode: simulating %d slots (seed %d)", cfg.Demo.Slots, seed)
	} else {
		client := ingest.NewClient(cfg.Ingest.BaseURL)
		poller := ingest.NewPoller(client, appStore, cfg.Ingest.PollInterval)
		pusher := ingest.NewPushClient(client.WSURL(), appStore, cfg.Ingest.ReconnectDelay, cfg.Ingest.MaxRetries)

		workers.Add(2)
		go func() {
			defer workers.Done()
			poller.Run(ctx)
		}()
		go func() {
			defer workers.Done()
			pusher.Run(ctx)
		}()
		backend = client
		logger.Printf("ingesting from %s", cfg.Ingest.BaseURL)
	}

	session := reconcile.NewSession(appStore, backend)

	router := api.NewRouter(appStore, session, hub, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	cancel()
	workers.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
