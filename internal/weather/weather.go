package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"eventease/internal/cache"
	"eventease/internal/geocode"
	"eventease/internal/model"
)

// Closed condition vocabulary. Provider condition codes are always mapped
// onto one of these before a report leaves this package.
const (
	ConditionClear        = "Clear"
	ConditionClouds       = "Clouds"
	ConditionRain         = "Rain"
	ConditionSnow         = "Snow"
	ConditionMist         = "Mist"
	ConditionThunderstorm = "Thunderstorm"
	ConditionUnknown      = "Unknown"
)

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
}

// Service fetches current conditions from the weather provider with a
// cache-then-fetch discipline. Provider failures never surface as errors:
// callers get a nil report, which means "unavailable" — never fabricated
// data.
type Service struct {
	client  *http.Client
	baseURL string
	geo     *geocode.Service
	cache   *cache.Cache[*model.WeatherReport]
	group   singleflight.Group
	log     *zerolog.Logger
}

func NewService(baseURL string, geo *geocode.Service, ttl time.Duration, log *zerolog.Logger) *Service {
	return &Service{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		geo:     geo,
		cache:   cache.New[*model.WeatherReport](ttl),
		log:     log,
	}
}

// ByCoordinates returns current conditions for a position, or nil when the
// provider is unavailable. The cache key is the unrounded coordinate pair.
func (s *Service) ByCoordinates(ctx context.Context, lat, lon float64) *model.WeatherReport {
	key := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
	if hit, ok := s.cache.Get(key); ok {
		return hit
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		report, err := s.fetch(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, report)
		return report, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("weather lookup failed, reporting unavailable")
		return nil
	}
	return v.(*model.WeatherReport)
}

// ByCity resolves the city to coordinates through the geocoding service,
// then fetches conditions. The cache key is the case-sensitive city name.
func (s *Service) ByCity(ctx context.Context, name string) *model.WeatherReport {
	if hit, ok := s.cache.Get(name); ok {
		return hit
	}

	candidates := s.geo.SearchAddresses(ctx, name)
	if len(candidates) == 0 {
		s.log.Warn().Str("city", name).Msg("city not found, weather unavailable")
		return nil
	}

	report := s.ByCoordinates(ctx, candidates[0].Latitude, candidates[0].Longitude)
	if report == nil {
		return nil
	}

	named := *report
	named.City = name
	s.cache.Set(name, &named)
	return &named
}

// PurgeCache sweeps stale entries and reports how many were dropped.
func (s *Service) PurgeCache() int {
	return s.cache.Purge(time.Now())
}

func (s *Service) fetch(ctx context.Context, lat, lon float64) (*model.WeatherReport, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather provider returned %s", resp.Status)
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed weather payload: %w", err)
	}

	condition, description, icon := conditionForCode(payload.Current.WeatherCode)

	return &model.WeatherReport{
		Temperature: int(math.Round(payload.Current.Temperature)),
		Condition:   condition,
		Description: description,
		Icon:        icon,
		Humidity:    int(math.Round(payload.Current.Humidity)),
		WindSpeed:   int(math.Round(payload.Current.WindSpeed)),
		City:        s.cityName(ctx, lat, lon),
	}, nil
}

func (s *Service) cityName(ctx context.Context, lat, lon float64) string {
	if addr := s.geo.Reverse(ctx, lat, lon); addr != nil {
		return addr.Name
	}
	return ""
}

// conditionForCode maps WMO weather interpretation codes onto the closed
// vocabulary plus a normalized icon identifier.
func conditionForCode(code int) (condition, description, icon string) {
	switch code {
	case 0:
		return ConditionClear, "clear sky", "01d"
	case 1:
		return ConditionClear, "mainly clear", "01d"
	case 2:
		return ConditionClear, "partly cloudy", "02d"
	case 3:
		return ConditionClouds, "overcast", "03d"
	case 45, 48:
		return ConditionMist, "fog", "50d"
	case 51, 53, 55, 56, 57:
		return ConditionRain, "drizzle", "09d"
	case 61, 63, 65, 66, 67:
		return ConditionRain, "rain", "10d"
	case 71, 73, 75, 77:
		return ConditionSnow, "snow", "13d"
	case 80, 81, 82:
		return ConditionRain, "rain showers", "09d"
	case 85, 86:
		return ConditionSnow, "snow showers", "13d"
	case 95, 96, 99:
		return ConditionThunderstorm, "thunderstorm", "11d"
	default:
		return ConditionUnknown, "unknown conditions", "01d"
	}
}
