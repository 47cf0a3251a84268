package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/qmarchand/rs-mpn-lookup/internal/config"
	"github.com/qmarchand/rs-mpn-lookup/internal/diagnostics"
	"github.com/qmarchand/rs-mpn-lookup/internal/fetcher"
	"github.com/qmarchand/rs-mpn-lookup/internal/lookup"
	"github.com/qmarchand/rs-mpn-lookup/internal/models"
	"github.com/qmarchand/rs-mpn-lookup/internal/parser"
	"github.com/qmarchand/rs-mpn-lookup/internal/ratelimit"
	"github.com/qmarchand/rs-mpn-lookup/pkg/logger"
)

// lookupResponse is the JSON shape of one resolved part number.
type lookupResponse struct {
	RSPN           string    `json:"rs_pn"`
	ManufacturerPN string    `json:"manufacturer_pn,omitempty"`
	Brand          string    `json:"brand,omitempty"`
	ProductURL     string    `json:"product_url,omitempty"`
	Status         string    `json:"status"`
	Found          bool      `json:"found"`
	LookedUpAt     time.Time `json:"looked_up_at"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	rsParser, err := parser.NewRSParser(cfg.Lookup.BaseURL)
	if err != nil {
		log.Fatalf("Failed to build parser: %v", err)
	}

	client := fetcher.New(fetcher.Options{
		UserAgent:    cfg.Lookup.UserAgent,
		Timeout:      cfg.Lookup.Timeout,
		MaxRetries:   cfg.Lookup.MaxRetries,
		RetryDelay:   cfg.Lookup.RetryDelay,
		RetryBackoff: cfg.Lookup.RetryBackoff,
	})

	// The daemon serves ad-hoc queries, so failed pages are not kept on disk.
	saver := diagnostics.NewSaver("", logg)

	lk := lookup.New(client, rsParser, saver, logg, lookup.Options{
		BaseURL:    cfg.Lookup.BaseURL,
		SearchPath: cfg.Lookup.SearchPath,
		ShortDelay: cfg.Lookup.ShortDelay,
	})

	// One shared limiter keeps concurrent API callers from hammering the
	// upstream site any harder than the batch tool would.
	limiter := ratelimit.NewFixedRateLimiter(cfg.Lookup.Delay)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Get("/api/lookup/{pn}", func(w http.ResponseWriter, req *http.Request) {
		pn := chi.URLParam(req, "pn")
		if pn == "" {
			http.Error(w, "missing part number", http.StatusBadRequest)
			return
		}

		if err := limiter.Wait(req.Context()); err != nil {
			http.Error(w, "request cancelled", http.StatusRequestTimeout)
			return
		}

		res := lk.Lookup(req.Context(), pn)
		writeResult(w, res)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logg.Info("lookup daemon listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logg.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logg.Error("shutdown failed", "error", err)
	}
}

func writeResult(w http.ResponseWriter, res *models.LookupResult) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lookupResponse{
		RSPN:           res.RSPN,
		ManufacturerPN: res.ManufacturerPN,
		Brand:          res.Brand,
		ProductURL:     res.ProductURL,
		Status:         res.Status,
		Found:          res.Found(),
		LookedUpAt:     res.LookedUpAt,
	})
}
