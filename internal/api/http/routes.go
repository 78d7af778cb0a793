package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
	"github.com/i474232898/temperature-anomalies/internal/engine"
	"github.com/i474232898/temperature-anomalies/internal/metrics"
	"github.com/i474232898/temperature-anomalies/internal/store"
	"github.com/i474232898/temperature-anomalies/internal/weather"
)

const defaultAnomalyLimit = 100

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *analysis.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/stats", func(c *fiber.Ctx) error {
		var q statsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := latestReport(service, q.Engine)
		if err != nil {
			return err
		}

		stats := make([]weather.SeasonalStat, 0, len(report.Stats))
		for _, s := range report.Stats {
			if q.matches(s.City, s.Season) {
				stats = append(stats, s)
			}
		}

		return c.JSON(fiber.Map{
			"runId":  report.RunID,
			"engine": report.Engine,
			"stats":  stats,
		})
	})

	v1.Get("/anomalies", func(c *fiber.Ctx) error {
		var q anomaliesQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := latestReport(service, q.Engine)
		if err != nil {
			return err
		}

		status := weather.AnomalyStatus(q.Status)
		records, err := engine.Filter(c.Context(), engine.NewSequential(), report.Records, func(r weather.Record) bool {
			return r.Status == status && q.matches(r.City, r.Season)
		}, engine.DefaultChunkSize)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to filter records")
		}

		total := len(records)
		if len(records) > q.Limit {
			records = records[:q.Limit]
		}
		if records == nil {
			records = []weather.Record{}
		}

		return c.JSON(fiber.Map{
			"runId":   report.RunID,
			"engine":  report.Engine,
			"status":  status,
			"total":   total,
			"records": records,
		})
	})

	v1.Get("/comparison", func(c *fiber.Ctx) error {
		snap, err := latestSnapshot(service)
		if err != nil {
			return err
		}
		if snap.Comparison == nil {
			return fiber.NewError(fiber.StatusNotFound, "no live comparison for the latest run")
		}
		return c.JSON(snap.Comparison)
	})

	v1.Get("/timing", func(c *fiber.Ctx) error {
		snap, err := latestSnapshot(service)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"sequentialSeconds": snap.Timing.Sequential.Seconds(),
			"parallelSeconds":   snap.Timing.Parallel.Seconds(),
			"speedup":           snap.Timing.Speedup,
			"summary":           snap.Timing.String(),
			"generatedAt":       snap.GeneratedAt,
		})
	})
}

// RegisterMetrics counts every request and exposes the collector on /metrics.
func RegisterMetrics(app *fiber.App, collector *metrics.Collector) {
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		collector.RecordAPIRequest(c.Route().Path, c.Method(), strconv.Itoa(status))
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
}

func latestSnapshot(service *analysis.Service) (analysis.Snapshot, error) {
	snap, err := service.Latest()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return analysis.Snapshot{}, fiber.NewError(fiber.StatusNotFound, "no analysis results yet")
		}
		return analysis.Snapshot{}, fiber.NewError(fiber.StatusInternalServerError, "failed to load analysis results")
	}
	return snap, nil
}

func latestReport(service *analysis.Service, engineName string) (*analysis.Report, error) {
	snap, err := latestSnapshot(service)
	if err != nil {
		return nil, err
	}
	report, ok := snap.Report(engineName)
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "no results for engine "+engineName)
	}
	return report, nil
}

// statsQuery holds the filters shared by the stats and anomalies endpoints.
type statsQuery struct {
	Engine string `validate:"oneof=sequential parallel"`
	City   string
	Season string `validate:"omitempty,oneof=winter spring summer autumn"`
}

func (q *statsQuery) bind(c *fiber.Ctx) error {
	q.Engine = c.Query("engine", engine.ParallelName)
	q.City = c.Query("city")
	q.Season = c.Query("season")
	return validate.Struct(q)
}

func (q statsQuery) matches(city string, season weather.Season) bool {
	if q.City != "" && q.City != city {
		return false
	}
	if q.Season != "" && weather.Season(q.Season) != season {
		return false
	}
	return true
}

// anomaliesQuery holds query parameters for the anomalies endpoint.
type anomaliesQuery struct {
	statsQuery
	Status string `validate:"oneof=anomalous normal unknown"`
	Limit  int    `validate:"gte=1,lte=10000"`
}

func (q *anomaliesQuery) bind(c *fiber.Ctx) error {
	q.Engine = c.Query("engine", engine.ParallelName)
	q.City = c.Query("city")
	q.Season = c.Query("season")
	q.Status = c.Query("status", string(weather.StatusAnomalous))

	q.Limit = defaultAnomalyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("limit must be an integer")
		}
		q.Limit = n
	}

	return validate.Struct(q)
}
