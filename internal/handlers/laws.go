package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/lawwatch/internal/model"
)

// LawRepository is the statute registry behind the monitored-laws API
type LawRepository interface {
	List(ctx context.Context) ([]model.MonitoredLaw, error)
	GetByID(ctx context.Context, id int64) (*model.MonitoredLaw, error)
	Create(ctx context.Context, l *model.MonitoredLaw) error
	Deactivate(ctx context.Context, id int64) (bool, error)
}

type createLawRequest struct {
	LawCode string `json:"law_code"`
	LawName string `json:"law_name"`
	Manager string `json:"manager"`
}

func LawsHandler(laws LawRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := laws.List(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error loading monitored laws"})
		}

		resp := make([]lawResponse, 0, len(list))
		for _, l := range list {
			resp = append(resp, newLawResponse(l))
		}
		return c.JSON(resp)
	}
}

func LawDetailHandler(laws LawRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid law id"})
		}

		law, err := laws.GetByID(c.UserContext(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error loading monitored law"})
		}
		if law == nil {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Law not found"})
		}

		return c.JSON(newLawResponse(*law))
	}
}

func CreateLawHandler(laws LawRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createLawRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body"})
		}

		req.LawCode = strings.TrimSpace(req.LawCode)
		req.LawName = strings.TrimSpace(req.LawName)
		if req.LawCode == "" || req.LawName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "law_code and law_name are required"})
		}

		law := &model.MonitoredLaw{
			LawCode: req.LawCode,
			LawName: req.LawName,
			Manager: strings.TrimSpace(req.Manager),
		}
		if err := laws.Create(c.UserContext(), law); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error saving monitored law"})
		}

		return c.Status(fiber.StatusCreated).JSON(newLawResponse(*law))
	}
}

func DeleteLawHandler(laws LawRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid law id"})
		}

		ok, err := laws.Deactivate(c.UserContext(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error deactivating law"})
		}
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Law not found"})
		}

		return c.JSON(fiber.Map{"id": id, "is_active": false})
	}
}
