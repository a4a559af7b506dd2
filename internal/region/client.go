// Package region looks up Indonesian administrative areas (province,
// regency, district, village) from the public wilayah API.
package region

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"SKCKPortal/internal/config"
	"SKCKPortal/pkg/apperror"
)

// Area is one entry of an address level.
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const cachePrefix = "region:"

var idPattern = regexp.MustCompile(`^[0-9]{1,16}$`)

// Client fetches area lists, caching them in Redis when a client is given.
type Client struct {
	http    *http.Client
	baseURL string
	cache   *redis.Client
	ttl     time.Duration
	timeout time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	log     *zap.Logger
}

const defaultTimeout = 10 * time.Second

func NewClient(cfg config.RegionConfig, cache *redis.Client, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cache:   cache,
		ttl:     cfg.CacheTTL,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		log:     log.With(zap.String("component", "region")),
	}
}

func (c *Client) Provinces(ctx context.Context) ([]Area, error) {
	return c.fetch(ctx, "provinces.json")
}

func (c *Client) Regencies(ctx context.Context, provinceID string) ([]Area, error) {
	return c.child(ctx, "regencies", provinceID)
}

func (c *Client) Districts(ctx context.Context, regencyID string) ([]Area, error) {
	return c.child(ctx, "districts", regencyID)
}

func (c *Client) Villages(ctx context.Context, districtID string) ([]Area, error) {
	return c.child(ctx, "villages", districtID)
}

func (c *Client) child(ctx context.Context, level, parentID string) ([]Area, error) {
	if !idPattern.MatchString(parentID) {
		return nil, apperror.Validation("Kode wilayah tidak valid", map[string]string{"id": "must be numeric"})
	}
	return c.fetch(ctx, fmt.Sprintf("%s/%s.json", level, parentID))
}

func (c *Client) fetch(ctx context.Context, path string) ([]Area, error) {
	key := cachePrefix + path
	if areas, ok := c.cached(ctx, key); ok {
		return areas, nil
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		areas, err := c.get(fctx, path)
		if err != nil {
			return nil, err
		}
		c.store(fctx, key, areas)
		return areas, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Area), nil
	case <-ctx.Done():
		return nil, apperror.UpstreamUnavailable("region", ctx.Err())
	}
}

func (c *Client) cached(ctx context.Context, key string) ([]Area, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("region cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var areas []Area
	if err := json.Unmarshal(raw, &areas); err != nil {
		c.log.Warn("discarding corrupt region cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return areas, true
}

func (c *Client) store(ctx context.Context, key string, areas []Area) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(areas)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("region cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Client) get(ctx context.Context, path string) ([]Area, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.UpstreamUnavailable("region", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.UpstreamUnavailable("region", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperror.NotFound("Wilayah tidak ditemukan")
	case resp.StatusCode != http.StatusOK:
		return nil, apperror.UpstreamUnavailable("region", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path))
	}

	areas := []Area{}
	if err := json.NewDecoder(resp.Body).Decode(&areas); err != nil {
		return nil, apperror.UpstreamUnavailable("region", fmt.Errorf("decode %s: %w", path, err))
	}
	return areas, nil
}
