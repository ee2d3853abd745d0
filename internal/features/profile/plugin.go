package profile

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drbn-app/drbn-backend/internal/features"
)

type ProfilePlugin struct{}

func New() *ProfilePlugin {
	return &ProfilePlugin{}
}

func (p *ProfilePlugin) Name() string { return "profile" }

// Models is empty because the profile table is part of the shared schema.
func (p *ProfilePlugin) Models() []interface{} {
	return nil
}

func (p *ProfilePlugin) RegisterRoutes(router fiber.Router, deps *features.Deps) {
	service := NewProfileService(deps.DB)
	handler := NewProfileHandler(service)

	router.Get("/profile", handler.Get)
	router.Put("/profile", handler.Save)
}
