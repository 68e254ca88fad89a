package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backend-commutepro/internal/logger"
	"backend-commutepro/internal/shared/geo"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	userAgent = "commutepro/1.0"
	cacheTTL  = 24 * time.Hour
)

// Resolver turns coordinates into a short display label.
type Resolver interface {
	ResolveLabel(ctx context.Context, lat, lng float64) string
}

// Client reverse geocodes against a Nominatim compatible endpoint.
// It never fails: any upstream problem yields a coordinate label.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	log     *logrus.Logger
}

func NewClient(baseURL string, httpClient *http.Client, cache *redis.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   cache,
		log:     log,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

var errEmptyName = errors.New("empty display name")

func (c *Client) ResolveLabel(ctx context.Context, lat, lng float64) string {
	key := cacheKey(lat, lng)
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key).Result()
		if err == nil && cached != "" {
			return cached
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("geocode cache read failed")
		}
	}

	name, err := c.reverse(ctx, lat, lng)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"lat": lat, "lng": lng}).Warn("reverse geocode failed")
		return geo.CoordinateLabel(lat, lng)
	}

	label := ShortLabel(name)
	if label == "" {
		return geo.CoordinateLabel(lat, lng)
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, label, cacheTTL).Err(); err != nil {
			c.log.WithError(err).Warn("geocode cache write failed")
		}
	}
	return label
}

func (c *Client) reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("reverse geocode status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse response: %w", err)
	}
	if strings.TrimSpace(body.DisplayName) == "" {
		return "", errEmptyName
	}
	return body.DisplayName, nil
}

// ShortLabel keeps the two most specific segments of a comma separated
// display name.
func ShortLabel(displayName string) string {
	parts := strings.Split(displayName, ",")
	kept := make([]string, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
		if len(kept) == 2 {
			break
		}
	}
	return strings.Join(kept, ", ")
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:%.5f:%.5f", lat, lng)
}
