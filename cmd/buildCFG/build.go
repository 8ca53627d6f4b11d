package buildCFG

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
)

type ServerConfig struct {
	Port string
}

type StoreConfig struct {
	Path string
}

type ProviderConfig struct {
	WeatherURL   string
	GeocodingURL string
	WeatherTTL   time.Duration
	GeocodingTTL time.Duration
}

type CacheConfig struct {
	SweepCron string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) *ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return &ServerConfig{Port: port}
}

func BuildStoreConfig(cfg *config.Config, log *zerolog.Logger) *StoreConfig {
	path := cfg.GetString("storage.path")
	if path == "" {
		path = "eventease.db"
		log.Warn().Msg("storage.path not set, defaulting to eventease.db")
	}
	return &StoreConfig{Path: path}
}

func BuildProviderConfig(cfg *config.Config, log *zerolog.Logger) *ProviderConfig {
	pc := &ProviderConfig{
		WeatherURL:   cfg.GetString("providers.weather_url"),
		GeocodingURL: cfg.GetString("providers.geocoding_url"),
		WeatherTTL:   time.Duration(cfg.GetInt("providers.weather_ttl_minutes")) * time.Minute,
		GeocodingTTL: time.Duration(cfg.GetInt("providers.geocoding_ttl_minutes")) * time.Minute,
	}
	if pc.WeatherURL == "" {
		pc.WeatherURL = "https://api.open-meteo.com/v1"
		log.Warn().Msg("providers.weather_url not set, using default")
	}
	if pc.GeocodingURL == "" {
		pc.GeocodingURL = "https://geocoding-api.open-meteo.com/v1"
		log.Warn().Msg("providers.geocoding_url not set, using default")
	}
	if pc.WeatherTTL <= 0 {
		pc.WeatherTTL = 30 * time.Minute
	}
	if pc.GeocodingTTL <= 0 {
		pc.GeocodingTTL = time.Hour
	}
	return pc
}

func BuildCacheConfig(cfg *config.Config, log *zerolog.Logger) *CacheConfig {
	sweep := cfg.GetString("cache.sweep")
	if sweep == "" {
		sweep = "*/15 * * * *"
		log.Warn().Msg("cache.sweep not set, defaulting to every 15 minutes")
	}
	return &CacheConfig{SweepCron: sweep}
}
