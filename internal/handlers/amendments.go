package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/lawwatch/internal/model"
	"github.com/jjenkins/lawwatch/internal/store"
)

// AmendmentRepository reads and acknowledges recorded amendments
type AmendmentRepository interface {
	List(ctx context.Context, unreadOnly bool, limit int) ([]store.AmendmentWithLaw, error)
	GetByID(ctx context.Context, id int64) (*store.AmendmentWithLaw, error)
	MarkRead(ctx context.Context, id int64) (bool, error)
}

// TaskLister lists the follow-up tasks of an amendment
type TaskLister interface {
	ListByAmendment(ctx context.Context, amendmentID int64) ([]model.FollowUpTask, error)
}

func AmendmentsHandler(amendments AmendmentRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		unreadOnly := c.QueryBool("unread_only", false)

		list, err := amendments.List(c.UserContext(), unreadOnly, store.DefaultAmendmentListLimit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error loading amendments"})
		}

		resp := make([]amendmentResponse, 0, len(list))
		for _, a := range list {
			resp = append(resp, newAmendmentResponse(a, false))
		}
		return c.JSON(resp)
	}
}

func AmendmentDetailHandler(amendments AmendmentRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid amendment id"})
		}

		a, err := amendments.GetByID(c.UserContext(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error loading amendment"})
		}
		if a == nil {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Amendment not found"})
		}

		return c.JSON(newAmendmentResponse(*a, true))
	}
}

func MarkReadHandler(amendments AmendmentRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid amendment id"})
		}

		ok, err := amendments.MarkRead(c.UserContext(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error updating amendment"})
		}
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Amendment not found"})
		}

		return c.JSON(fiber.Map{"id": id, "is_reviewed": true})
	}
}

func AmendmentTasksHandler(tasks TaskLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid amendment id"})
		}

		list, err := tasks.ListByAmendment(c.UserContext(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Error loading tasks"})
		}

		resp := make([]taskResponse, 0, len(list))
		for _, t := range list {
			resp = append(resp, newTaskResponse(t))
		}
		return c.JSON(resp)
	}
}
