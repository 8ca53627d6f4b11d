package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"

	"eventease/cmd/buildCFG"
	"eventease/internal/api/api"
	"eventease/internal/auth"
	"eventease/internal/events"
	"eventease/internal/geocode"
	"eventease/internal/model"
	"eventease/internal/repo"
	"eventease/internal/service"
	"eventease/internal/weather"
)

func main() {
	zlog.Init()
	log := zlog.Logger
	log.Info().Msg("eventease starting")

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	storeCfg := buildCFG.BuildStoreConfig(cfg, &log)
	providerCfg := buildCFG.BuildProviderConfig(cfg, &log)
	cacheCfg := buildCFG.BuildCacheConfig(cfg, &log)

	repository, err := repo.NewRepository(storeCfg.Path, &log)
	if err != nil {
		log.Fatal().Msgf("failed to open local store: %v", err)
	}
	defer func() {
		if err := repository.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close local store")
		}
	}()
	log.Info().Str("path", storeCfg.Path).Msg("local store opened")

	authManager := auth.NewManager(repository, &log)
	eventManager := events.NewManager(repository, authManager, &log)

	// The event list is reloaded whenever the authenticated user changes,
	// including on initial login.
	authManager.OnChange(func(_ *model.User) {
		if err := eventManager.Refresh(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to refresh events after auth change")
		}
	})

	if err := authManager.Restore(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to restore persisted session, continuing anonymous")
	}

	geocodeService := geocode.NewService(providerCfg.GeocodingURL, providerCfg.GeocodingTTL, &log)
	weatherService := weather.NewService(providerCfg.WeatherURL, geocodeService, providerCfg.WeatherTTL, &log)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cacheCfg.SweepCron, func() {
		removed := weatherService.PurgeCache() + geocodeService.PurgeCache()
		log.Debug().Int("removed", removed).Msg("lookup cache sweep completed")
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid cache sweep schedule")
	}
	sweeper.Start()
	defer sweeper.Stop()

	serviceInstance := service.NewService(authManager, eventManager, weatherService, geocodeService, &log)
	app := api.NewRouters(&api.Routers{Service: serviceInstance})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	log.Info().Msg("Shutdown complete")
}
