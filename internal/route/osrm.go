package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"backend-commutepro/internal/shared/geo"
)

// OSRMControl resolves driving routes against an OSRM HTTP server.
type OSRMControl struct {
	baseURL  string
	http     *http.Client
	detached atomic.Bool
}

func NewOSRMControl(baseURL string, httpClient *http.Client) *OSRMControl {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OSRMControl{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// OSRMFactory builds a fresh control per engine.
func OSRMFactory(baseURL string, httpClient *http.Client) ControlFactory {
	return func() (Control, error) {
		return NewOSRMControl(baseURL, httpClient), nil
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (c *OSRMControl) Route(ctx context.Context, from, to geo.Point) (Metrics, error) {
	if c.detached.Load() {
		return Metrics{}, ErrDetached
	}

	url := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=false", c.baseURL, coord(from), coord(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Metrics{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Metrics{}, err
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Metrics{}, fmt.Errorf("decode osrm response (status %d): %w", resp.StatusCode, err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return Metrics{}, fmt.Errorf("%w: code %q", ErrNoRoute, body.Code)
	}
	return Metrics{
		DistanceMeters:  body.Routes[0].Distance,
		DurationSeconds: body.Routes[0].Duration,
	}, nil
}

func (c *OSRMControl) Detach() error {
	c.detached.Store(true)
	return nil
}

func coord(p geo.Point) string {
	return strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}
