package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/minishop/minishop/internal/cart"
	"github.com/minishop/minishop/internal/catalog"
	h "github.com/minishop/minishop/internal/http"
	"github.com/minishop/minishop/internal/store"
)

const defaultCatalogURL = "https://gist.githubusercontent.com/rconnolly/d37a491b50203d66d043c26f33dbd798/raw/37b5b68c527ddbe824eaed12073d266d5455432a/clothing-compact.json"

type Config struct {
	HTTPPort        string
	CatalogURL      string
	RedisAddr       string // empty selects the in-memory store
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CatalogURL:      getEnv("CATALOG_URL", defaultCatalogURL),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	st, cleanup := newStore(ctx, cfg)
	defer cleanup()

	catalogSvc := catalog.NewService(st, cfg.CatalogURL)
	if err := catalogSvc.Load(ctx); err != nil {
		// Load failure is not fatal: browse and detail run against an empty
		// catalog and the UI surfaces the failure state.
		log.Printf("catalog load failed, continuing with empty catalog: %v", err)
	} else {
		log.Printf("catalog loaded: %d products", len(catalogSvc.Products()))
	}

	cartSvc, err := cart.NewService(ctx, st)
	if err != nil {
		log.Fatalf("failed to restore cart: %v", err)
	}
	log.Printf("cart restored: %d item(s)", cartSvc.TotalItemCount())

	handler := h.NewHandler(catalogSvc, cartSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/api/v1", handler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("minishop listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server exited")
}

// newStore picks the persistence backend: Redis when configured, in-memory
// otherwise.
func newStore(ctx context.Context, cfg *Config) (store.Store, func()) {
	if cfg.RedisAddr == "" {
		log.Printf("using in-memory store")
		return store.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	log.Printf("using redis store at %s", cfg.RedisAddr)
	return store.NewRedisStore(client), func() { client.Close() }
}
