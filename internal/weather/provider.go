package weather

import (
	"context"
	"encoding/json"
	"time"
)

// Provider abstracts the weather-data source (the NWAC pages and SnowObs API).
type Provider interface {
	FetchAccessToken(ctx context.Context) (AccessToken, error)
	FetchSiteList(ctx context.Context) ([]Site, error)
	FetchStations(ctx context.Context) (map[string]string, error)
	FetchSiteTimeseries(ctx context.Context, siteID string, start, end *time.Time) (json.RawMessage, error)
	FetchManySiteTimeseries(ctx context.Context, siteIDs []string, span time.Duration, ref time.Time) ([]json.RawMessage, error)
	FetchManySiteTimeseriesBetween(ctx context.Context, siteIDs []string, start, end *time.Time) ([]json.RawMessage, error)
}

// CacheKey identifies one memoized timeseries fetch. Nil bounds are part of the
// key, so an open window never collides with a closed one.
type CacheKey struct {
	SiteID string
	Start  string
	End    string
}

// NewCacheKey builds the key for a (site, start, end) call.
func NewCacheKey(siteID string, start, end *time.Time) CacheKey {
	k := CacheKey{SiteID: siteID}
	if start != nil {
		k.Start = start.UTC().Format(time.RFC3339Nano)
	}
	if end != nil {
		k.End = end.UTC().Format(time.RFC3339Nano)
	}
	return k
}

// TimeseriesCache memoizes raw timeseries payloads for the process lifetime.
// Implementations must be safe for concurrent use.
type TimeseriesCache interface {
	Get(key CacheKey) (json.RawMessage, bool)
	Put(key CacheKey, raw json.RawMessage)
}
