// Package routing implements the road-aware distance oracle on top of an
// OSRM routing service. Every failure degrades silently to the great-circle
// estimate so a dead service can never stall a simulation or a solve.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ekinyavuz/evplan/core/geo"
	coremetrics "github.com/ekinyavuz/evplan/core/metrics"
	corerouting "github.com/ekinyavuz/evplan/core/routing"
	"github.com/ekinyavuz/evplan/infra/logger"
)

// Config holds the routing-service settings.
type Config struct {
	// BaseURL of the OSRM instance. Empty selects the public demo server.
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills in the fields that may be omitted from the config file.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://router.project-osrm.org"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
}

// OSRMOracle queries an OSRM "driving" profile for distances and route
// geometry. It implements core/routing.Oracle.
type OSRMOracle struct {
	client   *http.Client
	baseURL  string
	fallback corerouting.GreatCircle
	sink     coremetrics.Sink
	log      logger.Logger
}

type osrmResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// New creates an OSRM oracle. A nil sink disables fallback accounting.
func New(cfg Config, sink coremetrics.Sink) *OSRMOracle {
	cfg.SetDefaults()
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &OSRMOracle{
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL: cfg.BaseURL,
		sink:    sink,
		log:     logger.New("osrm-oracle"),
	}
}

// DistanceKm returns the driving distance between a and b in kilometers,
// falling back to the haversine estimate on any service failure.
func (o *OSRMOracle) DistanceKm(ctx context.Context, a, b geo.Point) float64 {
	res, err := o.query(ctx, a, b, "overview=false")
	if err != nil {
		o.fellBack("distance", err)
		return o.fallback.DistanceKm(ctx, a, b)
	}
	return res.Routes[0].Distance / 1000
}

// Route returns the simplified route geometry between a and b, falling back
// to the two-point straight line on any service failure.
func (o *OSRMOracle) Route(ctx context.Context, a, b geo.Point) []geo.Point {
	res, err := o.query(ctx, a, b, "overview=full&geometries=geojson")
	if err != nil {
		o.fellBack("route", err)
		return o.fallback.Route(ctx, a, b)
	}
	coords := res.Routes[0].Geometry.Coordinates
	if len(coords) == 0 {
		return o.fallback.Route(ctx, a, b)
	}
	path := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		// geojson orders lon,lat
		path = append(path, geo.Point{Lat: c[1], Lon: c[0]})
	}
	return path
}

func (o *OSRMOracle) query(ctx context.Context, a, b geo.Point, params string) (*osrmResponse, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?%s",
		o.baseURL, a.Lon, a.Lat, b.Lon, b.Lat, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("empty route set")
	}
	return &parsed, nil
}

func (o *OSRMOracle) fellBack(call string, err error) {
	o.log.Debugf("osrm %s failed, using haversine: %v", call, err)
	if rerr := o.sink.RecordOracleFallback(coremetrics.OracleFallbackEvent{
		Call:   call,
		Reason: err.Error(),
		Time:   time.Now(),
	}); rerr != nil {
		o.log.Warnf("record fallback: %v", rerr)
	}
}
