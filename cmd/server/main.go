// Command server runs the Airtable→Postgres sync service and its operational
// HTTP API.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hackportal/airsync/internal/airtable"
	"github.com/hackportal/airsync/internal/cache"
	"github.com/hackportal/airsync/internal/config"
	"github.com/hackportal/airsync/internal/db"
	"github.com/hackportal/airsync/internal/metrics"
	"github.com/hackportal/airsync/internal/services"
	"github.com/hackportal/airsync/internal/workers"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	pg, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	logger.Info("connected to Postgres")

	if err := db.Migrate(pg); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	logger.Info("mirror schema migrated")

	// Query-serving collaborators (status endpoints, admin console) read the
	// mirror through a privilege-restricted pool. The split is a security
	// boundary: only the sync path holds write credentials.
	queryDB := pg
	if cfg.Database.ReadOnlyDSN != "" {
		ro, err := db.ConnectReadOnly(cfg.Database.ReadOnlyDSN)
		if err != nil {
			logger.Fatal("read-only pool", zap.Error(err))
		}
		queryDB = ro
	} else {
		logger.Warn("POSTGRES_RO_DSN not set, query paths share the writer pool")
	}

	metrics.Register()

	source := airtable.NewClient(cfg.Airtable.BaseURL, cfg.Airtable.BaseID, cfg.Airtable.APIKey, cfg.Airtable.Timeout)
	store := cache.NewStore()
	cachedReader := cache.NewCachedReader(source, store, cfg.Cache)
	eventSvc := services.NewEventService(source, cachedReader, logger)
	ledger := services.NewLedger(pg)
	queryLedger := services.NewLedger(queryDB)

	// The orchestrator gets the bare client, never the cached reader.
	orch := workers.New(pg, source, ledger, cfg.Sync, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "syncing": orch.IsRunning()})
	})

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		res := orch.PerformFullSync(r.Context())
		status := http.StatusOK
		if !res.Success && len(res.Errors) == 1 && res.Errors[0] == workers.ErrAlreadyRunning {
			status = http.StatusConflict
		}
		writeJSON(w, status, res)
	})

	mux.HandleFunc("/api/sync/status", func(w http.ResponseWriter, r *http.Request) {
		rows, err := queryLedger.Status(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	mux.HandleFunc("/api/sync/errors", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		rows, err := queryLedger.RecentErrors(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})

	mux.HandleFunc("/api/events/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/events/"):]
		switch r.Method {
		case http.MethodGet:
			ev, err := cachedReader.EventByID(r.Context(), id)
			if err == airtable.ErrNotFound {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			writeJSON(w, http.StatusOK, ev)
		case http.MethodPatch:
			var fields map[string]any
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
				http.Error(w, "invalid body", http.StatusBadRequest)
				return
			}
			ev, err := eventSvc.UpdateEvent(r.Context(), id, fields)
			if err == airtable.ErrNotFound {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			writeJSON(w, http.StatusOK, ev)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsMiddleware.Handler(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("ops API listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops API listener failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	orch.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
