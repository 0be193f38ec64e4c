// README: Entry point; loads config, wires the planner and starts the HTTP server.
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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tabi/internal/ai"
	"tabi/internal/config"
	httptransport "tabi/internal/http"
	"tabi/internal/infra"
	"tabi/internal/maps"
	"tabi/internal/modules/aiusage"
	"tabi/internal/modules/dialogue"
	"tabi/internal/modules/itinerary"
	"tabi/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, closeStore, err := newStateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	var places itinerary.PlacesLookup
	var directions itinerary.DirectionsLookup
	if cfg.Maps.APIKey != "" {
		placesSvc, err := maps.NewPlacesService(cfg.Maps.APIKey, cfg.Upstream.Timeout)
		if err != nil {
			return err
		}
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey, cfg.Upstream.Timeout)
		if err != nil {
			return err
		}
		places, directions = placesSvc, routeSvc
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set; plans will carry no map data")
	}

	itinerarySvc := itinerary.NewService(places, directions, itinerary.Options{
		MaxLocations: cfg.Planner.MaxLocations,
		Concurrency:  cfg.Planner.Concurrency,
	}, logger.Named("itinerary"))

	var usage service.UsageGuard
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer dbPool.Close()
		usage = aiusage.NewService(aiusage.NewStore(dbPool), cfg.Planner.MonthlyQuota)
	}

	planner := service.NewTripPlanner(
		dialogue.NewService(store),
		ai.WithTimeout(provider, cfg.Upstream.Timeout),
		itinerarySvc,
		cfg.Maps.EmbedKey,
		usage,
		logger.Named("planner"),
	)

	gin.SetMode(gin.ReleaseMode)
	handler := httptransport.NewServer(httptransport.ServerDeps{
		Planner:    planner,
		Logger:     logger.Named("http"),
		SessionTTL: cfg.Session.TTL,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("provider", provider.Name()),
		zap.Bool("quota", usage != nil))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newStateStore(ctx context.Context, cfg config.Config) (dialogue.StateStore, func(), error) {
	if cfg.Redis.Addr == "" {
		return dialogue.NewMemoryStore(cfg.Session.TTL), func() {}, nil
	}
	client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return nil, nil, err
	}
	return dialogue.NewRedisStore(client, cfg.Session.TTL), func() { _ = client.Close() }, nil
}

func newProvider(ctx context.Context, cfg config.Config) (ai.CompletionProvider, error) {
	opts := ai.Options{Model: cfg.AI.Model, MaxTokens: cfg.AI.MaxTokens, Temperature: cfg.AI.Temperature}
	switch cfg.AI.Provider {
	case "gemini":
		return ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, opts)
	case "openai":
		return ai.NewOpenAIProvider(cfg.AI.OpenAIKey, opts)
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
}
