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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kanchiweave/storefront/internal/config"
	"github.com/kanchiweave/storefront/internal/es"
	"github.com/kanchiweave/storefront/internal/events"
	"github.com/kanchiweave/storefront/internal/handlers"
	"github.com/kanchiweave/storefront/internal/localcache"
	"github.com/kanchiweave/storefront/internal/logging"
	"github.com/kanchiweave/storefront/internal/payment"
	"github.com/kanchiweave/storefront/internal/registry"
	"github.com/kanchiweave/storefront/internal/session"
	httpserver "github.com/kanchiweave/storefront/internal/transport/http"
	"github.com/kanchiweave/storefront/internal/upstream"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	cacheDB, err := config.InitCache(configuration)
	if err != nil {
		log.Fatalf("cache init error: %v", err)
	}
	cache := localcache.NewStore(cacheDB)

	client := upstream.NewClient(configuration.UPSTREAM_URL)

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	sessions := &session.Manager{Secret: []byte(configuration.JWT_SECRET)}
	reg := registry.New(client, cache, producer, logger)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := reg.Sweep(30 * time.Minute); n > 0 {
				logger.Info("evicted idle sessions", "count", n)
			}
		}
	}()
	coordinator := payment.NewCoordinator(configuration.RAZORPAY_KEY_ID, client, producer, logger)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	deps := httpserver.Deps{
		CartHandler:     &handlers.CartHandler{Sessions: sessions, Registry: reg},
		WishlistHandler: &handlers.WishlistHandler{Sessions: sessions, Registry: reg},
		CheckoutHandler: &handlers.CheckoutHandler{Sessions: sessions, Registry: reg},
		PaymentHandler:  &handlers.PaymentHandler{Sessions: sessions, Registry: reg, Coordinator: coordinator},
		ProxyHandler:    &handlers.ProxyHandler{Sessions: sessions, Upstream: client},
		SessionHandler:  &handlers.SessionHandler{Sessions: sessions, Registry: reg},
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: configuration.ES_INDEX}
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := cacheDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("cache close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
