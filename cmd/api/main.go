package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/movewise/aptos-swap-router/internal/config"
	"github.com/movewise/aptos-swap-router/internal/domain/entities"
	"github.com/movewise/aptos-swap-router/internal/domain/services"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/aggregator"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/aptos"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/cache"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/dex"
	"github.com/movewise/aptos-swap-router/internal/infrastructure/pricing"
	"github.com/movewise/aptos-swap-router/internal/observability"
	"github.com/movewise/aptos-swap-router/internal/presentation/handlers"
)

const (
	version = "0.3.0"
)

func main() {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	network := cfg.NetworkContext()
	log.Info().Str("network", string(network)).Msg("Configuration loaded")

	// Cache: Redis when configured, in-memory otherwise
	var cacheClient cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, "", 0)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis, using in-memory cache")
			cacheClient = cache.NewInMemoryCache()
		} else {
			defer redisCache.Close()
			cacheClient = redisCache
			log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		}
	} else {
		cacheClient = cache.NewInMemoryCache()
		log.Info().Msg("Using in-memory cache")
	}

	metrics := observability.NewMetrics("swap_router")

	// Chain client and venue clients
	aptosClient := aptos.NewClient(cfg.AptosRPCURL, log)
	if info, err := aptosClient.LedgerInfo(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Aptos fullnode not reachable at startup")
	} else {
		log.Info().Int("chainId", info.ChainID).Str("height", info.BlockHeight).
			Msg("Connected to Aptos fullnode")
	}

	venues := []dex.VenueClient{
		dex.NewLiquidswapClient(aptosClient),
		dex.NewPancakeSwapClient(aptosClient),
		dex.NewCellanaClient(aptosClient),
	}

	// Services
	tokens := entities.NewRegistry()
	oracle := pricing.NewOracle(cfg.PriceAPIURL, cacheClient, log, metrics)
	panora := aggregator.NewClient(cfg.PanoraURL, cfg.PanoraAPIKey, log)
	quotes := dex.NewQuoteService(venues, tokens, log, metrics)
	resolver := services.NewResolver(tokens, panora, quotes, oracle, log, metrics)
	executor := services.NewExecutor(resolver, log, metrics)

	// Handlers
	healthHandler := handlers.NewHealthHandler(version, network)
	routeHandler := handlers.NewRouteHandler(resolver, network)
	swapHandler := handlers.NewSwapHandler(executor, network)
	priceHandler := handlers.NewPriceHandler(oracle, tokens, network)
	tokenHandler := handlers.NewTokenHandler(tokens, network)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(log))
	r.Use(handlers.Recoverer(log))
	r.Use(middleware.Timeout(30 * time.Second))
	if cfg.RatePerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RatePerMinute, time.Minute))
	}
	r.Use(newCORS(cfg.AllowedOrigins).Handler)

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.NoCache)
		r.Get("/route", routeHandler.GetRoute)
		r.Get("/price/{symbol}", priceHandler.GetPrice)
		r.Get("/tokens", tokenHandler.ListTokens)
		r.Post("/swap", swapHandler.ExecuteSwap)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).
			Msg("Starting swap router API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

func newLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger()
}

func newCORS(allowedOrigins []string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}
