package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marquee/api"
	"marquee/config"
	"marquee/handlers"
	"marquee/internal/cache"
	"marquee/internal/kvstore"
	"marquee/internal/logging"
	"marquee/services/kinepolis"
	"marquee/services/letterboxd"
	"marquee/services/metadata"
	"marquee/services/pathe"
	"marquee/services/showtimes"
	"marquee/utils"
)

func main() {
	cfg := config.Load()
	log := logging.Setup(cfg)

	store, err := kvstore.OpenSQLite(cfg.StorePath, kvstore.DefaultLimits)
	if err != nil {
		log.Error("failed to open cache store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Two cache views over the same store: a short-TTL one for aggregated
	// showtimes and a long-TTL one for film metadata.
	showCache := cache.New(store, cfg.ShowtimeTTL)
	metaCache := cache.New(store, cfg.MetadataTTL)

	enricher := metadata.NewService(cfg.TMDBAPIKey, metaCache, nil)
	if !enricher.Enabled() {
		log.Warn("no TMDB API key configured, metadata enrichment disabled")
	}

	lists := letterboxd.NewClient(cfg.LetterboxdBaseURL, nil)
	kino := kinepolis.NewClient(cfg.KinepolisEndpoint, nil, enricher)
	path := pathe.NewClient(cfg.PatheBaseURL, nil, enricher, pathe.Options{
		Zone:          cfg.PatheZone,
		Cinemas:       cfg.PatheCinemas,
		Days:          cfg.PatheDays,
		FanoutWorkers: cfg.FanoutWorkers,
		EnrichWorkers: cfg.EnrichWorkers,
	})
	aggregator := showtimes.NewService(showCache, lists, kino, path, enricher)

	router := utils.NewRouter(cfg.AllowedOrigins)
	router.Use(api.RequestIDMiddleware())
	router.Use(api.AccessLogMiddleware(log.With("component", "http")))

	showtimesHandler := handlers.NewShowtimesHandler(aggregator)
	router.HandleFunc("/api/showtimes/{listPath:.+}", showtimesHandler.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/showtimes/{listPath:.+}", showtimesHandler.Options).Methods(http.MethodOptions)

	server := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.BindAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("shutdown incomplete", "error", err)
	}
}
