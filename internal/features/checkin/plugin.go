package checkin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drbn-app/drbn-backend/internal/features"
)

type CheckInPlugin struct{}

func New() *CheckInPlugin {
	return &CheckInPlugin{}
}

func (p *CheckInPlugin) Name() string { return "checkin" }

func (p *CheckInPlugin) Models() []interface{} {
	return []interface{}{
		&CheckIn{},
		&CheckInPhoto{},
		&DerivedFeatures{},
	}
}

func (p *CheckInPlugin) RegisterRoutes(router fiber.Router, deps *features.Deps) {
	service := NewCheckInService(deps.DB, deps.AI, deps.Photos, deps.Locks)
	handler := NewCheckInHandler(service)

	router.Post("/check-ins", handler.Create)
	router.Get("/check-ins", handler.List)
	router.Get("/check-ins/:id", handler.GetByID)
	router.Delete("/check-ins/:id", handler.Delete)
}
