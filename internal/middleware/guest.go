package middleware

import (
	"github.com/drbn-app/drbn-backend/internal/dto"
	"github.com/drbn-app/drbn-backend/internal/guest"
	"github.com/gofiber/fiber/v2"
)

// GuestProtected validates the X-Guest-Token header against the guest store
// and places the token in context locals.
func GuestProtected(store guest.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(guest.TokenHeader)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Missing guest token",
			})
		}

		ok, err := store.SessionExists(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to verify guest session",
			})
		}
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid or expired guest session",
			})
		}

		c.Locals(guest.TokenLocal, token)
		return c.Next()
	}
}
