package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/nwac-weather/internal/metrics"
	"github.com/i474232898/nwac-weather/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and request decoration.
type HTTPClientConfig struct {
	Client    *http.Client
	UserAgent string
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("circuit breaker open")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: upstreamHealthy,
	})
}

// upstreamHealthy reports whether err leaves the upstream's health untouched.
// Client errors (an unknown site is a 404) and caller cancellations are the
// caller's failure, not the upstream's, and must not open the breaker.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *weather.StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code >= 400 && code < 500 && code != http.StatusTooManyRequests
	}
	return false
}

// doRequest executes a single GET through the circuit breaker and returns the
// body. There are no retries: any failure is returned to the caller as is.
// endpoint is a short label used for metrics.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	endpoint string,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &weather.StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode}
		}
		return io.ReadAll(resp.Body)
	})

	if err == nil {
		body, ok := result.([]byte)
		if !ok {
			return nil, fmt.Errorf("unexpected result type from circuit breaker")
		}
		metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
		return body, nil
	}

	var statusErr *weather.StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamRequests.WithLabelValues(endpoint, "open").Inc()
		return nil, fmt.Errorf("%w: %w: %v", weather.ErrUpstreamRequest, errCircuitOpen, err)
	case errors.As(err, &statusErr):
		metrics.UpstreamRequests.WithLabelValues(endpoint, "status").Inc()
		return nil, err
	case ctx.Err() != nil:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "canceled").Inc()
		return nil, ctx.Err()
	default:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%w: %w", weather.ErrUpstreamRequest, err)
	}
}
