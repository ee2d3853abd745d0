package checkin

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/drbn-app/drbn-backend/internal/auth"
	"github.com/drbn-app/drbn-backend/internal/lock"
)

// =============================================================================
// CheckInHandler
// =============================================================================

type CheckInHandler struct {
	service *CheckInService
}

func NewCheckInHandler(service *CheckInService) *CheckInHandler {
	return &CheckInHandler{service: service}
}

func (h *CheckInHandler) Create(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	var req CreateCheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request body"})
	}

	resp, err := h.service.Create(c.Context(), userID, req, nil)
	switch {
	case errors.Is(err, ErrMissingPhotos):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "At least one photo is required"})
	case errors.Is(err, ErrInvalidPhoto):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": err.Error()})
	case errors.Is(err, lock.ErrLocked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": true, "message": "A check-in is already being processed"})
	case err != nil:
		slog.Error("check-in creation failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to create check-in"})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *CheckInHandler) List(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}
	responses, err := h.service.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load check-ins"})
	}
	return c.JSON(responses)
}

func (h *CheckInHandler) GetByID(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid check-in ID"})
	}
	resp, err := h.service.Get(c.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "Check-in not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load check-in"})
	}
	return c.JSON(resp)
}

func (h *CheckInHandler) Delete(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid check-in ID"})
	}
	err = h.service.Delete(c.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "Check-in not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to delete check-in"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
