package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoTickGate/tickgate/internal/config"
	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/handler"
	"github.com/GoTickGate/tickgate/internal/middleware"
	"github.com/GoTickGate/tickgate/internal/nbbo"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/sink"
	"github.com/GoTickGate/tickgate/internal/venues"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 3. Supervisor with the built-in venue registry
	registry := feed.NewRegistry(venues.Builtin(cfg.Feeds))
	sup := feed.New(registry, feed.WithShutdownTimeout(cfg.Feeds.ShutdownTimeout()))

	// 4. Optional Sinks (Redis > none, Postgres > none)
	var publisher *sink.NBBOPublisher
	if cfg.Redis.Addr != "" {
		publisher, err = sink.NewNBBOPublisher(cfg.Redis)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			sup.AddCloser(publisher)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, NBBO publishing disabled", "error", err)
			publisher = nil
		}
	}

	var store *sink.TickStore
	if cfg.Database.DSN != "" {
		store, err = sink.NewTickStore(cfg.Database)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL")
			sup.AddCloser(store)
		} else {
			logger.Error("⚠️ Failed to connect to DB, ticks will not be persisted", "error", err)
			store = nil
		}
	}

	// 5. Register configured subscriptions. A bad entry is skipped, not fatal:
	// the remaining feeds still run, and Run itself fails if nothing survived.
	for _, sub := range cfg.Feeds.Subscriptions {
		opts := feed.Options{
			Symbols:  sub.Symbols,
			Channels: feed.ParseChannels(sub.Channels),
		}
		if store != nil {
			opts.Sink = store.Sink()
		}
		if err := sup.RegisterVenue(sub.Venue, opts); err != nil {
			logger.Error("skipping subscription", "venue", sub.Venue, "error", err)
		}
	}

	// 6. NBBO aggregation across the configured venues
	cache := sink.NewQuoteCache()
	var quotes handler.QuoteReader
	if cfg.NBBO.Enabled {
		quotes = cache
		_, err := nbbo.Attach(sup, cfg.NBBO.Venues, cfg.NBBO.Symbols, func(q nbbo.Quote) {
			cache.Store(q)
			if publisher != nil {
				publisher.Publish(q)
			}
		})
		if err != nil {
			log.Fatalf("Failed to attach NBBO aggregation: %v", err)
		}
	}

	// 7. Setup Router
	statusHandler := handler.NewStatusHandler(sup, quotes)

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", statusHandler.Health)

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/feeds", statusHandler.Feeds)
		v1.GET("/nbbo", statusHandler.Symbols)
		v1.GET("/nbbo/:symbol", statusHandler.NBBO)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 TickGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sup.Fault(err)
		}
	}()

	// 8. Run installs the termination trap, drives every feed and blocks
	// until a signal or fault flags termination, then takes everything down
	// in two phases before returning.
	if err := sup.Run(); err != nil {
		log.Fatalf("Supervisor failed: %v", err)
	}

	logger.Info("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
