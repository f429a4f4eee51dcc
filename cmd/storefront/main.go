package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/cart"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/catalog"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/httpapi"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/notify"
	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/orders"
)

type Config struct {
	HTTPPort        string
	CatalogAPIURL   string
	OrdersAPIURL    string
	OrdersAPIToken  string
	CartStorage     string
	CartDataDir     string
	RedisAddr       string
	MongoURI        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		CatalogAPIURL:   getEnv("CATALOG_API_URL", "http://localhost:9000"),
		OrdersAPIURL:    getEnv("ORDERS_API_URL", "http://localhost:9001"),
		OrdersAPIToken:  getEnv("ORDERS_API_TOKEN", ""),
		CartStorage:     getEnv("CART_STORAGE", "file"),
		CartDataDir:     getEnv("CART_DATA_DIR", "./data/carts"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
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

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	storage, cleanup, err := newStorage(cfg)
	if err != nil {
		logger.Fatal("cart storage init failed", zap.Error(err))
	}
	defer cleanup()

	notifier := notify.NewZap(logger)
	carts := cart.NewManager(storage, cart.DefaultPricing(), notifier, logger)
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL, cfg.RequestTimeout)
	ordersClient := orders.NewClient(cfg.OrdersAPIURL, cfg.OrdersAPIToken, cfg.RequestTimeout)

	cartHandler := httpapi.NewCartHandler(carts, catalogClient, cfg.RequestTimeout)
	checkoutHandler := httpapi.NewCheckoutHandler(carts, ordersClient, cfg.RequestTimeout)
	productHandler := httpapi.NewProductHandler(catalogClient, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(httpapi.SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{product_id}", productHandler.Get)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/totals", cartHandler.Totals)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			r.Post("/panel/toggle", cartHandler.TogglePanel)
			r.Put("/panel", cartHandler.SetPanel)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Begin)
			r.Get("/", checkoutHandler.State)
			r.Post("/shipping", checkoutHandler.Shipping)
			r.Post("/payment", checkoutHandler.Payment)
			r.Post("/back", checkoutHandler.Back)
			r.Post("/confirm", checkoutHandler.Confirm)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("cart_storage", cfg.CartStorage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func newStorage(cfg *Config) (cart.Storage, func(), error) {
	noop := func() {}

	switch cfg.CartStorage {
	case "memory":
		return cart.NewMemoryStorage(), noop, nil
	case "file":
		fs, err := cart.NewFileStorage(cfg.CartDataDir)
		return fs, noop, err
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cart.NewRedisStorage(client), func() { client.Close() }, nil
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := cart.ConnectMongo(ctx, cfg.MongoURI, "storefront")
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Client().Disconnect(ctx)
		}
		return cart.NewMongoStorage(db), cleanup, nil
	default:
		return nil, noop, fmt.Errorf("unknown cart storage %q", cfg.CartStorage)
	}
}
