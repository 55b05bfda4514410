package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/healthbridge/internal/api"
	"example.com/healthbridge/internal/auth"
	"example.com/healthbridge/internal/bridge"
	"example.com/healthbridge/internal/config"
	"example.com/healthbridge/internal/healthstore"
	"example.com/healthbridge/internal/healthstore/memory"
	"example.com/healthbridge/internal/healthstore/postgres"
	"example.com/healthbridge/internal/intent"
	httptransport "example.com/healthbridge/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, cleanup := buildStoreClient(ctx, cfg)
	defer cleanup()

	var launcher bridge.PromptLauncher
	if cfg.IntentAgentURL != "" {
		launcher = intent.NewLauncher(cfg.IntentAgentURL, cfg.IntentAgentToken, cfg.IntentTimeout)
		log.Printf("intent agent attached -> %s", cfg.IntentAgentURL)
	} else {
		log.Printf("no intent agent configured; permission prompts and settings screens are disabled")
	}

	adapter := bridge.NewAdapter(client, launcher)

	handler := api.NewHandler(adapter)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	chain := authMiddleware.Wrap(httptransport.WithRequestLog(mux))
	chain = httptransport.WithCORS("http://localhost:5173")(chain)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, chain)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("bridged listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// buildStoreClient constructs the device store handle once at startup. A
// failed probe leaves the handle nil and the bridge reports unavailable; it
// is never re-probed.
func buildStoreClient(ctx context.Context, cfg config.Config) (healthstore.Client, func()) {
	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore()
		store.GrantAll()
		log.Printf("using in-memory health store")
		return store, func() {}
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Printf("health store unavailable: %v", err)
			return nil, func() {}
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.Printf("health store unavailable: %v", err)
			pool.Close()
			return nil, func() {}
		}
		return postgres.NewStore(pool), pool.Close
	default:
		log.Printf("unknown store driver %q; health store unavailable", cfg.StoreDriver)
		return nil, func() {}
	}
}
