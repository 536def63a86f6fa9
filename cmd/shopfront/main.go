package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/backend"
	"github.com/avelis/shopfront/internal/cart"
	h "github.com/avelis/shopfront/internal/http"
	"github.com/avelis/shopfront/internal/payment"
	"github.com/avelis/shopfront/internal/refdata"
	"github.com/avelis/shopfront/pkg/logger"
	"github.com/avelis/shopfront/pkg/metrics"
)

type Config struct {
	HTTPPort        string
	BackendBaseURL  string
	ProcessorURL    string
	RedisAddr       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CartIdleTTL     time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendBaseURL:  getEnv("BACKEND_BASE_URL", "http://localhost:8081"),
		ProcessorURL:    getEnv("PROCESSOR_URL", "http://localhost:8082"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CartIdleTTL:     30 * time.Minute,
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

	log, err := logger.New("shopfront")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Carts live in redis when configured, otherwise in process memory.
	var store cart.Store = cart.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, falling back to in-memory carts", zap.Error(err))
		} else {
			store = cart.NewRedisStore(client)
		}
		cancel()
		defer client.Close()
	}

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.RequestTimeout, log)
	processor := payment.NewProcessor(cfg.ProcessorURL, cfg.RequestTimeout)
	refdataSvc := refdata.NewService(backendClient)
	carts := cart.NewManager(store, log)

	evictCtx, stopEviction := context.WithCancel(context.Background())
	defer stopEviction()
	go carts.Run(evictCtx, 10*time.Minute, cfg.CartIdleTTL)

	cartHandler := h.NewCartHandler(carts, m)
	checkoutHandler := h.NewCheckoutHandler(carts, refdataSvc, backendClient, processor, h.ContextIdentity{}, log, m)
	productHandler := h.NewProductHandler(backendClient)
	refdataHandler := h.NewRefDataHandler(refdataSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)
	r.Use(h.IdentityMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/cart", cartHandler.GetCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Post("/cart/items/{productID}/decrement", cartHandler.DecrementQuantity)
		r.Delete("/cart/items/{productID}", cartHandler.RemoveItem)

		r.Post("/checkout", checkoutHandler.Submit)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{productID}", productHandler.GetProduct)

		r.Get("/countries", refdataHandler.ListCountries)
		r.Get("/countries/{code}/states", refdataHandler.ListStates)
		r.Get("/product-categories", refdataHandler.ListProductCategories)
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		log.Info("storefront listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
