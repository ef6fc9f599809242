// Package dashboard ties the NWAC provider, normalizer and chart composer
// together for the HTTP API, the cache warmer and the preview CLI.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/i474232898/nwac-weather/internal/chart"
	"github.com/i474232898/nwac-weather/internal/metrics"
	"github.com/i474232898/nwac-weather/internal/weather"
)

// ErrNoSites is returned when a batch names no site.
var ErrNoSites = errors.New("no sites requested")

// Service serves dashboard figures and the data behind them.
type Service struct {
	provider weather.Provider
}

// NewService creates a new Service.
func NewService(provider weather.Provider) *Service {
	return &Service{provider: provider}
}

// Records fetches every site over the span ending now and normalizes the
// payloads, stations of the first site first.
func (s *Service) Records(ctx context.Context, siteIDs []string, span time.Duration) ([]weather.StationRecord, error) {
	return s.Query(ctx, weather.SiteQuery{SiteIDs: siteIDs, Span: span})
}

// Query is Records for an arbitrary window. Absolute bounds, when either is
// set, take precedence over the span.
func (s *Service) Query(ctx context.Context, q weather.SiteQuery) ([]weather.StationRecord, error) {
	if len(q.SiteIDs) == 0 {
		return nil, ErrNoSites
	}
	log := slog.With("batch", uuid.NewString(), "sites", q.SiteIDs)

	started := time.Now()
	raws, err := s.fetch(ctx, q)
	if err != nil {
		log.Error("timeseries batch failed", "err", err)
		return nil, err
	}

	records, err := weather.NormalizeAll(raws)
	if err != nil {
		log.Error("normalize failed", "err", err)
		return nil, err
	}

	log.Info("timeseries batch ready", "stations", len(records), "elapsed", time.Since(started))
	return records, nil
}

func (s *Service) fetch(ctx context.Context, q weather.SiteQuery) ([]json.RawMessage, error) {
	if q.Start == nil && q.End == nil {
		return s.provider.FetchManySiteTimeseries(ctx, q.SiteIDs, q.Span, q.Reference)
	}
	return s.provider.FetchManySiteTimeseriesBetween(ctx, q.SiteIDs, q.Start, q.End)
}

// Figure builds the four-panel chart for the sites.
func (s *Service) Figure(ctx context.Context, siteIDs []string, span time.Duration) (*chart.Figure, error) {
	timer := prometheus.NewTimer(metrics.FigureBuild)
	defer timer.ObserveDuration()

	records, err := s.Records(ctx, siteIDs, span)
	if err != nil {
		return nil, err
	}
	return chart.Compose(records), nil
}

// Sites returns the site directory ordered by display name.
func (s *Service) Sites(ctx context.Context) ([]weather.Site, error) {
	sites, err := s.provider.FetchSiteList(ctx)
	if err != nil {
		return nil, err
	}
	weather.SortSitesByName(sites)
	return sites, nil
}

// Stations returns the current station name to station id map.
func (s *Service) Stations(ctx context.Context) (map[string]string, error) {
	return s.provider.FetchStations(ctx)
}

// Warm fetches the sites without building anything, leaving the payloads in
// the provider's cache.
func (s *Service) Warm(ctx context.Context, siteIDs []string, span time.Duration) error {
	if len(siteIDs) == 0 {
		return ErrNoSites
	}
	_, err := s.provider.FetchManySiteTimeseries(ctx, siteIDs, span, time.Time{})
	return err
}
