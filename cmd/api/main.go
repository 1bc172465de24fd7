package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiconfig "cantax/pkg/api/config"
	apitax "cantax/pkg/api/tax"
	"cantax/pkg/core/config"
	"cantax/pkg/core/ingest"
	"cantax/pkg/core/store"
	"cantax/pkg/core/tax"
)

func main() {
	configPath := flag.String("config", "config/engine.yaml", "path to engine.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	repos, closeStore, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "type", cfg.Storage.Type, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	handler := apitax.NewHandler(cfg.Engine, repos)
	if cfg.Engine.PrescribedRatesFile != "" {
		rates, err := ingest.LoadPrescribedRates(cfg.Engine.PrescribedRatesFile)
		if err != nil {
			slog.Error("failed to load prescribed rates", "file", cfg.Engine.PrescribedRatesFile, "error", err)
			os.Exit(1)
		}
		handler.Rates = rates
		fmt.Printf("[RATES] Loaded %d prescribed-rate quarters from %s\n", len(rates.Rates), cfg.Engine.PrescribedRatesFile)
	}

	fresh := tax.CheckDataFreshness(time.Now(), cfg.Engine.DataMaxAgeDays)
	for _, s := range fresh.Stale {
		slog.Warn("rate table needs re-verification", "module", s.Module, "last_verified", s.LastVerified, "age_days", s.AgeDays)
	}

	configHandler := apiconfig.NewHandler(cfg)
	router := apitax.NewRouter(handler, configHandler.Mount)

	server := http.Server{
		Handler:           router,
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("[API] Tax engine API starting on %s (storage: %s)\n", cfg.Server.Addr, cfg.Storage.Type)
	for _, route := range apitax.Routes {
		fmt.Printf("  - %s\n", route)
	}
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - GET  /api/config/data-versions")

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server closed")
}
