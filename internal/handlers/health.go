package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks database reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthInfo reports which remote credentials are configured
type HealthInfo struct {
	LawAPIConfigured bool
	AIConfigured     bool
}

func HealthHandler(db Pinger, info HealthInfo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"law_api":   configured(info.LawAPIConfigured),
			"ai":        configured(info.AIConfigured),
			"database":  "ok",
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				resp["status"] = "degraded"
				resp["database"] = "unreachable"
				return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
			}
		}

		return c.JSON(resp)
	}
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
