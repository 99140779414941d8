package places

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techwithPranab/ride-offers/internal/models"
	"github.com/techwithPranab/ride-offers/internal/observability"
)

// CachedResolver puts a Redis TTL cache in front of another resolver.
// Cache failures are never fatal: a miss or a Redis error falls through to
// the wrapped resolver.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
}

func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl}
}

func (c *CachedResolver) Search(ctx context.Context, query string, bias *models.Coordinates) ([]models.Location, error) {
	if len(query) < MinQueryLen {
		return nil, nil
	}
	key := searchKey(query, bias)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var locs []models.Location
		if err := json.Unmarshal([]byte(raw), &locs); err == nil {
			observability.SearchCacheHits.Inc()
			return locs, nil
		}
	}
	locs, err := c.next.Search(ctx, query, bias)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(locs); err == nil {
		_ = c.client.Set(ctx, key, b, c.ttl).Err()
	}
	return locs, nil
}

func (c *CachedResolver) ReverseGeocode(ctx context.Context, lat, lng float64) (models.Location, error) {
	key := reverseKey(lat, lng)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var loc models.Location
		if err := json.Unmarshal([]byte(raw), &loc); err == nil {
			observability.SearchCacheHits.Inc()
			return loc, nil
		}
	}
	loc, err := c.next.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return models.Location{}, err
	}
	if b, err := json.Marshal(loc); err == nil {
		_ = c.client.Set(ctx, key, b, c.ttl).Err()
	}
	return loc, nil
}

// searchKey buckets the bias to ~100m so nearby fixes share an entry.
func searchKey(query string, bias *models.Coordinates) string {
	if bias == nil {
		return "places:search:" + query
	}
	return fmt.Sprintf("places:search:%s:%.3f,%.3f", query, bias.Latitude, bias.Longitude)
}

func reverseKey(lat, lng float64) string {
	return fmt.Sprintf("places:reverse:%.5f,%.5f", lat, lng)
}
