package routine

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drbn-app/drbn-backend/internal/features"
)

type RoutinePlugin struct{}

func New() *RoutinePlugin {
	return &RoutinePlugin{}
}

func (p *RoutinePlugin) Name() string { return "routine" }

func (p *RoutinePlugin) Models() []interface{} {
	return []interface{}{
		&Routine{},
		&RoutineStep{},
		&ProductRecommendation{},
	}
}

func (p *RoutinePlugin) RegisterRoutes(router fiber.Router, deps *features.Deps) {
	service := NewRoutineService(deps.DB, deps.AI, deps.Locks)
	handler := NewRoutineHandler(service)

	router.Post("/routines/generate", handler.Generate)
	router.Get("/routines/active", handler.Active)
	router.Get("/routines", handler.History)
	router.Post("/routines/:id/activate", handler.Activate)
}
