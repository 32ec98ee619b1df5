package handlers

import (
	"errors"

	"github.com/ecoboard/backend/internal/http/dto"
	"github.com/ecoboard/backend/internal/middleware"
	"github.com/ecoboard/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUserHandler(users *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// GetUser GET /api/user/:walletAddress
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	return h.respondUser(c, c.Params("walletAddress"))
}

// GetMe GET /api/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	return h.respondUser(c, middleware.GetWallet(c))
}

func (h *UserHandler) respondUser(c *fiber.Ctx, wallet string) error {
	user, err := h.users.Get(c.UserContext(), wallet)
	if errors.Is(err, services.ErrUserNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		h.log.Error("failed to get user", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(user)
}

// CreateUser POST /api/user: 200 with the existing user, 201 when created.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if errs := dto.Bind(c, &req); errs != nil {
		return validationError(c, "Invalid user data", errs)
	}

	user, created, err := h.users.Register(c.UserContext(), req.ToModel())
	if err != nil {
		h.log.Error("failed to register user", zap.Error(err))
		return internalError(c)
	}
	if created {
		return c.Status(fiber.StatusCreated).JSON(user)
	}
	return c.JSON(user)
}

// GetTasks GET /api/user/:walletAddress/tasks
func (h *UserHandler) GetTasks(c *fiber.Ctx) error {
	tasks, err := h.users.Tasks(c.UserContext(), c.Params("walletAddress"))
	if err != nil {
		h.log.Error("failed to get tasks", zap.Error(err))
		return internalError(c)
	}
	return c.JSON(tasks)
}
