package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/nwac-weather/internal/weather"
)

// NWACConfig locates the NWAC pages and the SnowObs API behind them.
type NWACConfig struct {
	// WebBaseURL is the weather-data page root, e.g. https://www.nwac.us/weatherdata.
	WebBaseURL string
	// APIBaseURL is the SnowObs API root, e.g. https://api.snowobs.com/v1.
	APIBaseURL string
	// ReferenceSite is the site whose "now" page is scraped for a bare token.
	ReferenceSite string
	// Source is the data-source tag sent with every API call.
	Source string
	// FloorResolution is the granularity batch windows are aligned to (one
	// minute by default).
	FloorResolution time.Duration
	UserAgent       string
}

// DefaultNWACConfig returns the production endpoints.
func DefaultNWACConfig() NWACConfig {
	return NWACConfig{
		WebBaseURL:      "https://www.nwac.us/weatherdata",
		APIBaseURL:      "https://api.snowobs.com/v1",
		ReferenceSite:   "alpental",
		Source:          "nwac",
		FloorResolution: time.Minute,
		UserAgent:       "nwac-weather/1.0",
	}
}

// NWACProvider implements weather.Provider by scraping NWAC pages for tokens and
// station ids, then calling the SnowObs API.
type NWACProvider struct {
	name    string
	cfg     NWACConfig
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	cache   weather.TimeseriesCache

	pageTokens   TokenExtractor
	scriptTokens TokenExtractor
	now          func() time.Time
}

// NewNWACProvider creates a provider. cache may be nil to disable memoization.
func NewNWACProvider(client *http.Client, cfg NWACConfig, cache weather.TimeseriesCache) *NWACProvider {
	def := DefaultNWACConfig()
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = def.WebBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.ReferenceSite == "" {
		cfg.ReferenceSite = def.ReferenceSite
	}
	if cfg.Source == "" {
		cfg.Source = def.Source
	}
	if cfg.FloorResolution <= 0 {
		cfg.FloorResolution = def.FloorResolution
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	cfg.WebBaseURL = strings.TrimRight(cfg.WebBaseURL, "/")
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return &NWACProvider{
		name: "nwac",
		cfg:  cfg,
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: cfg.UserAgent,
		},
		circuit:      newCircuitBreaker("nwac"),
		cache:        cache,
		pageTokens:   RegexpTokenExtractor{Pattern: pageTokenPattern},
		scriptTokens: RegexpTokenExtractor{Pattern: scriptTokenPattern},
		now:          time.Now,
	}
}

func (p *NWACProvider) Name() string {
	return p.name
}

// FetchAccessToken scrapes a token from the reference site's "now" page.
func (p *NWACProvider) FetchAccessToken(ctx context.Context) (weather.AccessToken, error) {
	page, err := p.get(ctx, "page", p.cfg.WebBaseURL+"/"+url.PathEscape(p.cfg.ReferenceSite)+"/now", nil)
	if err != nil {
		return "", err
	}

	token, err := p.pageTokens.ExtractToken(string(page))
	if err != nil {
		return "", err
	}
	slog.Debug("fetched access token", "site", p.cfg.ReferenceSite)
	return token, nil
}

// FetchSiteList returns the directory page's sites in page order.
func (p *NWACProvider) FetchSiteList(ctx context.Context) ([]weather.Site, error) {
	page, err := p.get(ctx, "directory", p.cfg.WebBaseURL+"/", nil)
	if err != nil {
		return nil, err
	}

	sites, err := parseSiteList(string(page))
	if err != nil {
		return nil, err
	}
	slog.Info("fetched site list", "sites", len(sites))
	return sites, nil
}

// FetchStations returns the current station map, station name to station id.
func (p *NWACProvider) FetchStations(ctx context.Context) (map[string]string, error) {
	token, err := p.FetchAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("token", string(token))
	values.Set("units", "english")
	values.Set("qc", "true")
	values.Set("source", p.cfg.Source)

	body, err := p.get(ctx, "current", p.cfg.APIBaseURL+"/station/current", values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		StationCurrent *struct {
			Station []struct {
				Name string `json:"NAME"`
				STID string `json:"STID"`
			} `json:"STATION"`
		} `json:"station_current"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, weather.FormatErrorf("decode station/current: %v", err)
	}
	if payload.StationCurrent == nil {
		return nil, weather.FormatErrorf("station/current response without station_current")
	}

	stations := make(map[string]string, len(payload.StationCurrent.Station))
	for _, s := range payload.StationCurrent.Station {
		stations[s.Name] = s.STID
	}
	return stations, nil
}

func (p *NWACProvider) get(ctx context.Context, endpoint, base string, values url.Values) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		u := base
		if len(values) > 0 {
			u = fmt.Sprintf("%s?%s", base, values.Encode())
		}
		return http.NewRequest(http.MethodGet, u, nil)
	}
	return doRequest(ctx, p.httpCfg, p.circuit, endpoint, buildRequest)
}
