package handlers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/lawwatch/internal/service"
)

// Checker runs one amendment check over every active statute
type Checker interface {
	RunAll(ctx context.Context) (*service.RunStats, error)
}

type checkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// CheckHandler triggers a batch run and always answers success-shaped JSON.
// count is the number of amendments actually recorded; a run that could not
// start reports count 0 with the cause in error.
func CheckHandler(checker Checker, logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := checker.RunAll(c.UserContext())
		if err != nil {
			logger.Error("manual amendment check failed", "err", err)
			return c.JSON(checkResponse{
				Success: true,
				Message: newAmendmentsMessage(0),
				Error:   err.Error(),
			})
		}

		return c.JSON(checkResponse{
			Success: true,
			Message: newAmendmentsMessage(stats.Persisted),
			Count:   stats.Persisted,
			Failed:  stats.Failed,
		})
	}
}

func newAmendmentsMessage(count int) string {
	return fmt.Sprintf("%d건의 신규 개정사항을 발견했습니다.", count)
}
