// Command nwac-preview prints NWAC station data as terminal charts, or the
// plotly figure JSON with -json.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/i474232898/nwac-weather/internal/chart"
	"github.com/i474232898/nwac-weather/internal/common"
	"github.com/i474232898/nwac-weather/internal/config"
	"github.com/i474232898/nwac-weather/internal/dashboard"
	"github.com/i474232898/nwac-weather/internal/logging"
	"github.com/i474232898/nwac-weather/internal/weather"
	"github.com/i474232898/nwac-weather/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg, "nwac-preview"))

	var (
		sites    = flag.String("sites", cfg.ReferenceSite, "comma-separated site ids")
		span     = flag.Duration("span", cfg.DefaultSpan, "window ending at the current minute")
		start    = flag.String("start", "", "absolute window start (RFC3339), overrides -span")
		end      = flag.String("end", "", "absolute window end (RFC3339)")
		list     = flag.Bool("list", false, "list site ids and exit")
		stations = flag.Bool("stations", false, "print the station name to id map and exit")
		asJSON   = flag.Bool("json", false, "print the plotly figure JSON")
		width    = flag.Int("width", 100, "chart width in columns")
		height   = flag.Int("height", 10, "chart height in rows")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider := providers.NewNWACProvider(&http.Client{Timeout: cfg.HTTPTimeout}, providers.NWACConfig{
		WebBaseURL:      cfg.WebBaseURL,
		APIBaseURL:      cfg.APIBaseURL,
		ReferenceSite:   cfg.ReferenceSite,
		Source:          cfg.Source,
		FloorResolution: cfg.FloorResolution,
	}, nil)
	service := dashboard.NewService(provider)

	if err := run(ctx, service, options{
		sites:    common.SplitList(*sites),
		span:     *span,
		start:    *start,
		end:      *end,
		list:     *list,
		stations: *stations,
		asJSON:   *asJSON,
		width:    *width,
		height:   *height,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "nwac-preview: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	sites          []string
	span           time.Duration
	start, end     string
	list, stations bool
	asJSON         bool
	width, height  int
}

func run(ctx context.Context, service *dashboard.Service, opts options) error {
	switch {
	case opts.list:
		sites, err := service.Sites(ctx)
		if err != nil {
			return err
		}
		for _, s := range sites {
			fmt.Printf("%-24s %s\n", s.ID, s.Name)
		}
		return nil
	case opts.stations:
		stations, err := service.Stations(ctx)
		if err != nil {
			return err
		}
		return printJSON(stations)
	}

	q := weather.SiteQuery{SiteIDs: opts.sites, Span: opts.span}
	var err error
	if q.Start, err = parseBound(opts.start); err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	if q.End, err = parseBound(opts.end); err != nil {
		return fmt.Errorf("-end: %w", err)
	}

	records, err := service.Query(ctx, q)
	if err != nil {
		return err
	}
	fig := chart.Compose(records)
	if opts.asJSON {
		return printJSON(fig)
	}
	fmt.Print(chart.RenderText(fig, opts.width, opts.height))
	return nil
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
