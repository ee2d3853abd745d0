package features

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/config"
	"github.com/drbn-app/drbn-backend/internal/lock"
	"github.com/drbn-app/drbn-backend/internal/storage"
)

// Deps bundles the shared infrastructure handed to every feature plugin.
type Deps struct {
	DB     *gorm.DB
	Cfg    *config.Config
	AI     analysis.Generator
	Photos storage.Bucket
	Locks  lock.Locker
}

// Plugin defines the interface every feature package must implement.
type Plugin interface {
	// Name returns the unique feature identifier.
	Name() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts feature routes on the given Fiber group.
	// The group is already prefixed with /api/p and has JWT middleware applied.
	RegisterRoutes(router fiber.Router, deps *Deps)
}
