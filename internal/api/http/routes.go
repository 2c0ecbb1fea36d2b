package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/hyacinth-monitor/internal/analysis"
	"github.com/i474232898/hyacinth-monitor/internal/auth"
	"github.com/i474232898/hyacinth-monitor/internal/control"
	"github.com/i474232898/hyacinth-monitor/internal/heatmap"
	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

var validate = validator.New()

const sessionKey = "session"

// Deps are the services the routes are wired to.
type Deps struct {
	Telemetry *telemetry.Service
	Heatmap   *heatmap.Sampler
	Analysis  *analysis.Service
	Sessions  *auth.SessionStore
	Drones    *control.Registry
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/readings", func(c *fiber.Ctx) error {
		w, err := parseWindow(c)
		if err != nil {
			return toFiberError(err)
		}
		readings, err := d.Telemetry.Readings(w)
		if err != nil {
			return toFiberError(err)
		}
		if readings == nil {
			readings = []telemetry.Reading{}
		}
		return c.JSON(fiber.Map{
			"window":   w,
			"count":    len(readings),
			"readings": readings,
		})
	})

	v1.Get("/readings/latest", func(c *fiber.Ctx) error {
		return c.JSON(d.Telemetry.LatestMeasurements())
	})

	v1.Get("/readings/cards", func(c *fiber.Ctx) error {
		return c.JSON(d.Telemetry.Cards())
	})

	v1.Get("/readings/table", func(c *fiber.Ctx) error {
		w, err := parseWindow(c)
		if err != nil {
			return toFiberError(err)
		}
		table, err := d.Telemetry.Table(w)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(table)
	})

	v1.Get("/prediction", func(c *fiber.Ctx) error {
		w, err := parseWindow(c)
		if err != nil {
			return toFiberError(err)
		}
		p, ok, err := d.Telemetry.Prediction(w)
		if err != nil {
			return toFiberError(err)
		}
		if !ok {
			return c.JSON(fiber.Map{
				"available": false,
				"message":   "Insufficient data for predictions",
			})
		}
		return c.JSON(fiber.Map{
			"available":  true,
			"prediction": p,
			"display": fiber.Map{
				"growthProbability": fmt.Sprintf("%.1f%%", p.GrowthProbability),
				"temperature":       fmt.Sprintf("%.1f°C", p.AvgTemperature),
				"ph":                fmt.Sprintf("%.1f", p.AvgPH),
				"dissolvedSolids":   fmt.Sprintf("%.0f ppm", p.AvgDissolvedSolids),
			},
		})
	})

	v1.Get("/heatmap", func(c *fiber.Ctx) error {
		w, err := parseWindow(c)
		if err != nil {
			return toFiberError(err)
		}
		overlay, err := d.Heatmap.Build(w)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(overlay)
	})

	v1.Post("/analysis/image", func(c *fiber.Ctx) error {
		if d.Analysis == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "image analysis is not configured")
		}
		file, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image file is required")
		}
		if file.Size > analysis.MaxImageBytes {
			return fiber.NewError(fiber.StatusBadRequest, "image exceeds 5MB")
		}
		f, err := file.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable image upload")
		}
		defer f.Close()

		raw, err := io.ReadAll(io.LimitReader(f, analysis.MaxImageBytes+1))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unreadable image upload")
		}

		result, err := d.Analysis.Analyze(c.UserContext(), file.Filename, raw)
		if err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	registerAuthRoutes(v1, d)
	registerControlRoutes(v1, d)
}

// windowQuery holds the optional sample window selector.
type windowQuery struct {
	Window string `validate:"omitempty,oneof=current 12h 1d 3d 1w"`
}

func parseWindow(c *fiber.Ctx) (telemetry.SampleWindow, error) {
	q := windowQuery{Window: c.Query("window")}
	if err := validate.Struct(q); err != nil {
		return "", fmt.Errorf("%w: unknown sample window %q", telemetry.ErrInvalidArgument, q.Window)
	}
	if q.Window == "" {
		return telemetry.WindowCurrent, nil
	}
	return telemetry.ParseSampleWindow(q.Window)
}

// toFiberError maps domain errors onto HTTP status codes.
func toFiberError(err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, telemetry.ErrInvalidArgument):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, control.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, telemetry.ErrUpstreamUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		log.Printf("ERROR: unhandled error: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
