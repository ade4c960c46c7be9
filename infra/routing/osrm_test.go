package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ekinyavuz/evplan/core/geo"
	coremetrics "github.com/ekinyavuz/evplan/core/metrics"
)

type recordingSink struct {
	coremetrics.NopSink
	fallbacks []coremetrics.OracleFallbackEvent
}

func (r *recordingSink) RecordOracleFallback(ev coremetrics.OracleFallbackEvent) error {
	r.fallbacks = append(r.fallbacks, ev)
	return nil
}

func TestDistanceFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[{"distance":12345.0}]}`))
	}))
	defer srv.Close()

	o := New(Config{BaseURL: srv.URL, TimeoutSeconds: 2}, nil)
	d := o.DistanceKm(context.Background(), geo.Point{Lat: 41, Lon: 29}, geo.Point{Lat: 41.1, Lon: 29.1})
	require.InDelta(t, 12.345, d, 1e-9)
}

func TestDistanceFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := &recordingSink{}
	o := New(Config{BaseURL: srv.URL, TimeoutSeconds: 2}, sink)
	a := geo.Point{Lat: 41, Lon: 29}
	b := geo.Point{Lat: 41.1, Lon: 29.1}
	d := o.DistanceKm(context.Background(), a, b)
	require.InDelta(t, geo.Haversine(a, b), d, 1e-9)
	require.Len(t, sink.fallbacks, 1)
	require.Equal(t, "distance", sink.fallbacks[0].Call)
}

func TestDistanceFallsBackOnMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes": 3}`))
	}))
	defer srv.Close()

	o := New(Config{BaseURL: srv.URL, TimeoutSeconds: 2}, nil)
	a := geo.Point{Lat: 48.85, Lon: 2.35}
	b := geo.Point{Lat: 48.86, Lon: 2.36}
	require.InDelta(t, geo.Haversine(a, b), o.DistanceKm(context.Background(), a, b), 1e-9)
}

func TestRouteGeometryFlipsLonLat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[{"distance":1000,"geometry":{"coordinates":[[29.0,41.0],[29.05,41.02],[29.1,41.1]]}}]}`))
	}))
	defer srv.Close()

	o := New(Config{BaseURL: srv.URL, TimeoutSeconds: 2}, nil)
	path := o.Route(context.Background(), geo.Point{Lat: 41, Lon: 29}, geo.Point{Lat: 41.1, Lon: 29.1})
	require.Equal(t, []geo.Point{
		{Lat: 41.0, Lon: 29.0},
		{Lat: 41.02, Lon: 29.05},
		{Lat: 41.1, Lon: 29.1},
	}, path)
}

func TestRouteFallsBackToStraightLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sink := &recordingSink{}
	o := New(Config{BaseURL: srv.URL, TimeoutSeconds: 2}, sink)
	a := geo.Point{Lat: 41, Lon: 29}
	b := geo.Point{Lat: 41.1, Lon: 29.1}
	require.Equal(t, []geo.Point{a, b}, o.Route(context.Background(), a, b))
	require.Len(t, sink.fallbacks, 1)
	require.Equal(t, "route", sink.fallbacks[0].Call)
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	require.Equal(t, "https://router.project-osrm.org", cfg.BaseURL)
	require.Equal(t, 5, cfg.TimeoutSeconds)
}
