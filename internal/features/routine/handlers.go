package routine

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/auth"
	"github.com/drbn-app/drbn-backend/internal/lock"
)

// =============================================================================
// RoutineHandler
// =============================================================================

type RoutineHandler struct {
	service *RoutineService
}

func NewRoutineHandler(service *RoutineService) *RoutineHandler {
	return &RoutineHandler{service: service}
}

func (h *RoutineHandler) Generate(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	var req GenerateRoutineRequest
	_ = c.BodyParser(&req)

	routine, err := h.service.Generate(c.Context(), userID, req)
	switch {
	case errors.Is(err, ErrProfileRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Complete your profile before generating a routine"})
	case errors.Is(err, lock.ErrLocked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": true, "message": "A generation is already in progress"})
	case errors.Is(err, analysis.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": true, "message": "Rate limit exceeded. Please try again in a moment."})
	case errors.Is(err, analysis.ErrQuotaExhausted):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": true, "message": "AI credits exhausted. Please add credits to continue."})
	case errors.Is(err, analysis.ErrEmptyResponse), errors.Is(err, analysis.ErrInvalidFormat):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": true, "message": "AI analysis failed. Please try again."})
	case err != nil:
		slog.Error("routine generation failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to generate routine"})
	}
	return c.Status(fiber.StatusCreated).JSON(routine)
}

func (h *RoutineHandler) Active(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}
	routine, err := h.service.Active(c.Context(), userID)
	if errors.Is(err, ErrNoActiveRoutine) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "No active routine"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load routine"})
	}
	return c.JSON(routine)
}

func (h *RoutineHandler) History(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}
	routines, err := h.service.History(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load routine history"})
	}
	return c.JSON(routines)
}

func (h *RoutineHandler) Activate(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid routine ID"})
	}
	routine, err := h.service.Activate(c.Context(), userID, id)
	if errors.Is(err, ErrRoutineNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "Routine not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to activate routine"})
	}
	return c.JSON(routine)
}
