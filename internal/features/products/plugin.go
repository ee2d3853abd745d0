package products

import (
	"github.com/gofiber/fiber/v2"

	"github.com/drbn-app/drbn-backend/internal/features"
)

type ProductsPlugin struct{}

func New() *ProductsPlugin {
	return &ProductsPlugin{}
}

func (p *ProductsPlugin) Name() string { return "products" }

// Models is empty because the shelf table is part of the shared schema.
func (p *ProductsPlugin) Models() []interface{} {
	return nil
}

func (p *ProductsPlugin) RegisterRoutes(router fiber.Router, deps *features.Deps) {
	service := NewProductService(deps.DB)
	handler := NewProductHandler(service)

	router.Get("/products", handler.List)
	router.Post("/products", handler.Create)
	router.Patch("/products/:id", handler.Update)
	router.Delete("/products/:id", handler.Delete)
}
