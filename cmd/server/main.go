package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/internal/api"
	"storefront-service/internal/api/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/cache"
	"storefront-service/internal/database"
	"storefront-service/internal/repository"
)

func main() {
	cfg, err := database.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.WarnOnWeakSecrets()

	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	userRepo := repository.NewUserRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	shipmentRepo := repository.NewShipmentRepository(pool)
	movementRepo := repository.NewMovementRepository(pool)
	productRepo := repository.NewProductRepository(pool)

	// Redis is an optimization, not a dependency: if it is down, product
	// reads just go to Postgres every time.
	var cachedProducts *cache.CachedProductRepository
	products := productRepo
	rdb, err := cache.ConnectRedis(cfg)
	if err != nil {
		log.Printf("redis unavailable, product caching disabled: %v", err)
	} else {
		cachedProducts = cache.NewCachedProductRepository(productRepo, rdb)
		products = cachedProducts
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	bootstrap := auth.BootstrapAdmin{
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
	}

	var invalidator handlers.ProductInvalidator
	if cachedProducts != nil {
		invalidator = cachedProducts
	}

	router := api.NewRouter(api.RouterDeps{
		Auth:        handlers.NewAuthHandler(userRepo, tokens, bootstrap, !cfg.Production(), cfg.Production()),
		Products:    handlers.NewProductHandler(products, movementRepo),
		Orders:      handlers.NewOrderHandler(orderRepo, invalidator),
		Shipments:   handlers.NewShipmentHandler(shipmentRepo),
		Tokens:      tokens,
		AdminAPIKey: cfg.AdminAPIKey,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting storefront service on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
