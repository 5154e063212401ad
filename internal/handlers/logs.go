package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/lawwatch/internal/model"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// LogLister reads the monitoring audit log
type LogLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.MonitoringLog, error)
}

func LogsHandler(logs LogLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultLogLimit)
		if limit <= 0 || limit > maxLogLimit {
			limit = defaultLogLimit
		}

		entries, err := logs.ListRecent(c.UserContext(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error loading monitoring logs"})
		}

		resp := make([]logResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, newLogResponse(e))
		}
		return c.JSON(resp)
	}
}
