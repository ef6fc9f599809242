package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/nwac-weather/internal/chart"
	"github.com/i474232898/nwac-weather/internal/common"
	"github.com/i474232898/nwac-weather/internal/dashboard"
	"github.com/i474232898/nwac-weather/internal/weather"
)

var validate = validator.New()

// Service is the part of dashboard.Service the handlers need.
type Service interface {
	Figure(ctx context.Context, siteIDs []string, span time.Duration) (*chart.Figure, error)
	Sites(ctx context.Context) ([]weather.Site, error)
	Stations(ctx context.Context) (map[string]string, error)
}

// Options tunes request defaults.
type Options struct {
	DefaultSpan time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service, opts Options) {
	if opts.DefaultSpan <= 0 {
		opts.DefaultSpan = 120 * time.Hour
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return renderIndex(c, service)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/sites", func(c *fiber.Ctx) error {
		sites, err := service.Sites(c.UserContext())
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(sites)
	})

	v1.Get("/stations", func(c *fiber.Ctx) error {
		stations, err := service.Stations(c.UserContext())
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(stations)
	})

	v1.Get("/figure", func(c *fiber.Ctx) error {
		var req figureQuery
		if err := req.bind(c, opts.DefaultSpan); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		fig, err := service.Figure(c.UserContext(), req.Sites, req.Span)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fig)
	})
}

// figureQuery holds query parameters for the figure endpoint.
type figureQuery struct {
	Sites []string      `validate:"min=1,max=9,dive,required"`
	Span  time.Duration `validate:"gte=1h,lte=720h"`
}

func (q *figureQuery) bind(c *fiber.Ctx, defaultSpan time.Duration) error {
	q.Sites = common.SplitList(c.Query("sites"))
	q.Span = defaultSpan

	if s := c.Query("span"); s != "" {
		span, err := time.ParseDuration(s)
		if err != nil {
			return errors.New("invalid span; use a duration such as 48h")
		}
		q.Span = span
	}
	return nil
}

// serviceError maps dashboard and upstream failures to HTTP errors.
func serviceError(err error) error {
	switch {
	case errors.Is(err, dashboard.ErrNoSites):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrMalformedRecord):
		slog.Warn("malformed station data", "err", err)
		return fiber.NewError(fiber.StatusBadGateway, "upstream returned a malformed station record")
	case errors.Is(err, weather.ErrUpstreamFormat):
		slog.Warn("unexpected upstream format", "err", err)
		return fiber.NewError(fiber.StatusBadGateway, "upstream response had an unexpected format")
	case errors.Is(err, weather.ErrUpstreamRequest):
		slog.Warn("upstream request failed", "err", err)
		return fiber.NewError(fiber.StatusBadGateway, "upstream request failed")
	default:
		slog.Error("request failed", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// ErrorHandler renders every error as a JSON body with the matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
