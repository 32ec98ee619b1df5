package handlers

import (
	"strconv"

	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PointsHandler struct {
	points *services.PointsService
	log    *zap.Logger
}

func NewPointsHandler(points *services.PointsService, log *zap.Logger) *PointsHandler {
	return &PointsHandler{points: points, log: log}
}

// Leaderboard GET /api/leaderboard?limit=N
func (h *PointsHandler) Leaderboard(c *fiber.Ctx) error {
	users, err := h.points.Leaderboard(c.UserContext(), queryLimit(c))
	if err != nil {
		h.log.Error("failed to get leaderboard", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(users)
}

// CompleteTask POST /api/eco-task
func (h *PointsHandler) CompleteTask(c *fiber.Ctx) error {
	var req dto.CompleteTaskRequest
	if errs := dto.Bind(c, &req); errs != nil {
		return validationError(c, "Invalid task data", errs)
	}

	task, err := h.points.CompleteTask(c.UserContext(), req.ToModel())
	if err != nil {
		h.log.Error("failed to complete task", zap.Error(err))
		return internalError(c)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// queryLimit reads ?limit=N. Missing or non-numeric means "use the default"
// (nil); limit=0 is a real limit and yields an empty board.
func queryLimit(c *fiber.Ctx) *int {
	raw := c.Query("limit")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
