package handlers

import (
	"context"
	"time"

	"github.com/a-h/templ"
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jjenkins/lawwatch/internal/service"
	"github.com/jjenkins/lawwatch/internal/templates"
)

const homeAmendmentLimit = 10

// MetricsSource computes the dashboard counters
type MetricsSource interface {
	Calculate(ctx context.Context) (*service.SystemMetrics, error)
}

func HomeHandler(metricsSource MetricsSource, amendments AmendmentRepository, logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		metrics := templates.HomeMetrics{}

		m, err := metricsSource.Calculate(ctx)
		if err != nil {
			logger.Error("failed to calculate dashboard metrics", "err", err)
		} else {
			metrics.MonitoredLaws = m.MonitoredLaws
			metrics.TotalAmendments = m.TotalAmendments
			metrics.UnreadAmendments = m.UnreadAmendments
			metrics.PendingTasks = m.PendingTasks
			metrics.RecentFailures = m.RecentFailures
			metrics.HasData = m.MonitoredLaws > 0
			if m.LastRunAt.Valid {
				metrics.LastRun = m.LastRunAt.Time.Local().Format("2006-01-02 15:04")
			}
		}

		var rows []templates.AmendmentRow
		if metrics.HasData {
			list, err := amendments.List(ctx, false, homeAmendmentLimit)
			if err != nil {
				logger.Error("failed to load recent amendments", "err", err)
			}
			for _, a := range list {
				row := templates.AmendmentRow{
					ID:            a.ID,
					LawName:       a.LawName,
					AmendmentDate: a.AmendmentDate.Format(time.DateOnly),
					AmendmentType: a.AmendmentType.String,
					Summary:       a.Summary,
					IsReviewed:    a.IsReviewed,
				}
				if a.EnforcementDate.Valid {
					row.EnforcementDate = a.EnforcementDate.Time.Format(time.DateOnly)
				}
				rows = append(rows, row)
			}
		}

		page := templates.Home(metrics, rows)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}

func StatsHandler(metricsSource MetricsSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := metricsSource.Calculate(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error calculating statistics"})
		}
		return c.JSON(m)
	}
}
