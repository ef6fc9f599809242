package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/nwac-weather/internal/weather"
)

// apiTimeLayout is the YYYYMMDDHHMM form the timeseries API expects.
const apiTimeLayout = "200601021504"

// FormatAPITime renders t for the timeseries start/end parameters (UTC).
func FormatAPITime(t time.Time) string {
	return t.UTC().Format(apiTimeLayout)
}

// FetchSiteTimeseries returns the raw timeseries response for every station
// behind siteID. Nil bounds are left out of the request. Results are memoized
// per (siteID, start, end) when the provider has a cache.
func (p *NWACProvider) FetchSiteTimeseries(ctx context.Context, siteID string, start, end *time.Time) (json.RawMessage, error) {
	key := weather.NewCacheKey(siteID, start, end)
	if p.cache != nil {
		if raw, ok := p.cache.Get(key); ok {
			slog.Debug("timeseries cache hit", "site", siteID)
			return raw, nil
		}
	}

	page, err := p.get(ctx, "page", p.cfg.WebBaseURL+"/"+url.PathEscape(siteID)+"/now", nil)
	if err != nil {
		return nil, err
	}
	script, err := parseSiteScript(string(page), p.scriptTokens)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", siteID, err)
	}

	values := url.Values{}
	values.Set("token", string(script.Token))
	values.Set("stid", strings.Join(script.StationIDs, ","))
	values.Set("source", p.cfg.Source)
	if start != nil {
		values.Set("start", FormatAPITime(*start))
	}
	if end != nil {
		values.Set("end", FormatAPITime(*end))
	}

	slog.Info("fetching site timeseries",
		"site", siteID,
		"stations", script.StationIDs,
		"start", values.Get("start"),
		"end", values.Get("end"),
	)
	body, err := p.get(ctx, "timeseries", p.cfg.APIBaseURL+"/station/timeseries", values)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, weather.FormatErrorf("site %s: timeseries response is not JSON", siteID)
	}

	raw := json.RawMessage(body)
	if p.cache != nil {
		p.cache.Put(key, raw)
	}
	return raw, nil
}

// FetchManySiteTimeseries fetches every site over the window [floor(ref)-span,
// floor(ref)]. A zero ref means now.
func (p *NWACProvider) FetchManySiteTimeseries(ctx context.Context, siteIDs []string, span time.Duration, ref time.Time) ([]json.RawMessage, error) {
	start, end := p.Window(span, ref)
	return p.FetchManySiteTimeseriesBetween(ctx, siteIDs, &start, &end)
}

// FetchManySiteTimeseriesBetween fetches every site over absolute bounds
// concurrently; nil bounds are left open. Results follow the order of siteIDs.
// The first failure cancels the remaining fetches and fails the batch.
func (p *NWACProvider) FetchManySiteTimeseriesBetween(ctx context.Context, siteIDs []string, start, end *time.Time) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(siteIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, siteID := range siteIDs {
		i, siteID := i, siteID
		g.Go(func() error {
			raw, err := p.FetchSiteTimeseries(gctx, siteID, start, end)
			if err != nil {
				return err
			}
			results[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FetchSiteWindow is the single-site form of FetchManySiteTimeseries and returns
// the site's payload unwrapped.
func (p *NWACProvider) FetchSiteWindow(ctx context.Context, siteID string, span time.Duration, ref time.Time) (json.RawMessage, error) {
	results, err := p.FetchManySiteTimeseries(ctx, []string{siteID}, span, ref)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Window resolves a span and reference time (zero for now) to absolute bounds.
func (p *NWACProvider) Window(span time.Duration, ref time.Time) (start, end time.Time) {
	if ref.IsZero() {
		ref = p.now()
	}
	end = FloorTime(ref, p.cfg.FloorResolution)
	return end.Add(-span), end
}

// FloorTime truncates t (in UTC) to the start of its resolution window.
func FloorTime(t time.Time, resolution time.Duration) time.Time {
	return t.UTC().Truncate(resolution)
}

// JoinPayloads combines per-site payloads into one JSON array value.
func JoinPayloads(raws []json.RawMessage) json.RawMessage {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, raw := range raws {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(raw)
	}
	b.WriteByte(']')
	return b.Bytes()
}
