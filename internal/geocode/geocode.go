package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"eventease/internal/cache"
	"eventease/internal/model"
)

// Queries shorter than this are "not yet meaningful" and short-circuit to
// an empty result set without touching the provider.
const minQueryLen = 3

// Coordinates are rounded to 4 decimal places (~11m) for reverse-lookup
// cache keys so near-identical positions share an entry.
const coordPrecision = 4

const maxResults = 5

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
	} `json:"results"`
}

// Service resolves free-text queries to ranked address candidates and
// coordinates back to addresses. Provider failures never surface to the
// caller: they degrade to empty results so lookups cannot block event flows.
type Service struct {
	client  *http.Client
	baseURL string
	cache   *cache.Cache[[]model.Address]
	group   singleflight.Group
	log     *zerolog.Logger
}

func NewService(baseURL string, ttl time.Duration, log *zerolog.Logger) *Service {
	return &Service{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache.New[[]model.Address](ttl),
		log:     log,
	}
}

// SearchAddresses returns ranked candidates for a free-text query. The
// cache key is the lower-cased trimmed query; concurrent identical lookups
// are coalesced into one provider request.
func (s *Service) SearchAddresses(ctx context.Context, query string) []model.Address {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minQueryLen {
		return []model.Address{}
	}

	// Search and reverse entries live in one cache; the prefix keeps a
	// free-text query that looks like a coordinate pair from colliding
	// with a reverse entry.
	key := "q:" + strings.ToLower(q)
	if hit, ok := s.cache.Get(key); ok {
		return hit
	}

	params := url.Values{}
	params.Set("name", q)
	params.Set("count", strconv.Itoa(maxResults))
	params.Set("language", "en")
	params.Set("format", "json")

	return s.lookup(ctx, key, params)
}

// Reverse resolves coordinates to the closest known address, or nil when
// the provider has no answer or is unreachable.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) *model.Address {
	key := fmt.Sprintf("rev:%.*f,%.*f", coordPrecision, lat, coordPrecision, lon)
	if hit, ok := s.cache.Get(key); ok {
		return first(hit)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	return first(s.lookup(ctx, key, params))
}

// PurgeCache sweeps stale entries and reports how many were dropped.
func (s *Service) PurgeCache() int {
	return s.cache.Purge(time.Now())
}

// lookup performs the cache-miss provider request for key, storing the
// result on success. Failures are logged and produce an empty result set.
func (s *Service) lookup(ctx context.Context, key string, params url.Values) []model.Address {
	v, err, _ := s.group.Do(key, func() (any, error) {
		results, err := s.fetch(ctx, params)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, results)
		return results, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("geocoding lookup failed, returning empty result")
		return []model.Address{}
	}
	return v.([]model.Address)
}

func (s *Service) fetch(ctx context.Context, params url.Values) ([]model.Address, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding provider returned %s", resp.Status)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed geocoding payload: %w", err)
	}

	out := make([]model.Address, 0, len(payload.Results))
	for _, r := range payload.Results {
		name := r.Name
		if r.Admin1 != "" {
			name = r.Name + ", " + r.Admin1
		}
		out = append(out, model.Address{
			Name:      name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			City:      r.Name,
			Country:   r.Country,
		})
	}
	return out, nil
}

func first(addrs []model.Address) *model.Address {
	if len(addrs) == 0 {
		return nil
	}
	a := addrs[0]
	return &a
}
