package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/nwac-weather/internal/chart"
	"github.com/i474232898/nwac-weather/internal/weather"
)

type fakeService struct {
	err      error
	gotSites []string
	gotSpan  time.Duration
}

func (f *fakeService) Figure(ctx context.Context, siteIDs []string, span time.Duration) (*chart.Figure, error) {
	f.gotSites, f.gotSpan = siteIDs, span
	if f.err != nil {
		return nil, f.err
	}
	return chart.Compose(nil), nil
}

func (f *fakeService) Sites(ctx context.Context) ([]weather.Site, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []weather.Site{{ID: "alpental", Name: "Alpental"}, {ID: "snoqualmie", Name: "Snoqualmie Pass"}}, nil
}

func (f *fakeService) Stations(ctx context.Context) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]string{"Alpental Base": "ALP44"}, nil
}

func newTestApp(svc Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, Options{DefaultSpan: 120 * time.Hour})
	return app
}

func do(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

// TestFigureQueryValidation verifies that the figure endpoint enforces the
// site count and span bounds.
func TestFigureQueryValidation(t *testing.T) {
	app := newTestApp(&fakeService{})

	for _, target := range []string{
		"/api/v1/figure",
		"/api/v1/figure?sites=",
		"/api/v1/figure?sites=a,b,c,d,e,f,g,h,i,j",
		"/api/v1/figure?sites=alpental&span=30m",
		"/api/v1/figure?sites=alpental&span=721h",
		"/api/v1/figure?sites=alpental&span=soon",
	} {
		resp, _ := do(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestFigureDefaultsSpan(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc)

	resp, body := do(t, app, "/api/v1/figure?sites=alpental,snoqualmie")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}
	if svc.gotSpan != 120*time.Hour {
		t.Fatalf("expected default span, got %v", svc.gotSpan)
	}
	if len(svc.gotSites) != 2 || svc.gotSites[1] != "snoqualmie" {
		t.Fatalf("unexpected sites %v", svc.gotSites)
	}

	var fig struct {
		Data   []json.RawMessage          `json:"data"`
		Layout map[string]json.RawMessage `json:"layout"`
	}
	if err := json.Unmarshal([]byte(body), &fig); err != nil {
		t.Fatalf("decode figure: %v", err)
	}
	if _, ok := fig.Layout["yaxis8"]; !ok {
		t.Fatalf("expected four panels with secondary axes, got layout keys %v", fig.Layout)
	}

	do(t, app, "/api/v1/figure?sites=alpental&span=48h")
	if svc.gotSpan != 48*time.Hour {
		t.Fatalf("expected explicit span, got %v", svc.gotSpan)
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{weather.FormatErrorf("token not found"), http.StatusBadGateway},
		{weather.RequestErrorf("connection refused"), http.StatusBadGateway},
		{&weather.StatusError{URL: "https://example.test", StatusCode: 503}, http.StatusBadGateway},
		{weather.ErrMalformedRecord, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, c := range cases {
		app := newTestApp(&fakeService{err: c.err})
		for _, target := range []string{"/api/v1/figure?sites=alpental", "/api/v1/sites", "/api/v1/stations"} {
			resp, body := do(t, app, target)
			if resp.StatusCode != c.code {
				t.Errorf("%s with %v: expected status %d, got %d", target, c.err, c.code, resp.StatusCode)
			}
			if !strings.Contains(body, `"error":true`) {
				t.Errorf("%s: expected JSON error body, got %s", target, body)
			}
		}
	}
}

func TestSitesAndStations(t *testing.T) {
	app := newTestApp(&fakeService{})

	resp, body := do(t, app, "/api/v1/sites")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var sites []weather.Site
	if err := json.Unmarshal([]byte(body), &sites); err != nil {
		t.Fatalf("decode sites: %v", err)
	}
	if len(sites) != 2 || sites[0].ID != "alpental" {
		t.Fatalf("unexpected sites %v", sites)
	}

	_, body = do(t, app, "/api/v1/stations")
	if !strings.Contains(body, `"Alpental Base":"ALP44"`) {
		t.Fatalf("unexpected stations body %s", body)
	}
}

func TestIndexSelection(t *testing.T) {
	app := newTestApp(&fakeService{})

	resp, body := do(t, app, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("expected html, got %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, `<option value="alpental" selected>`) {
		t.Fatalf("expected first site selected by default:\n%s", body)
	}

	_, body = do(t, app, "/?sites=snoqualmie")
	if !strings.Contains(body, `<option value="snoqualmie" selected>`) || strings.Contains(body, `<option value="alpental" selected>`) {
		t.Fatalf("expected selection from the URL:\n%s", body)
	}
}
