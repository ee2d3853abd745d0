package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drbn-app/drbn-backend/internal/models"
)

var ErrNotFound = errors.New("product not found")

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) List(ctx context.Context, userID uuid.UUID) ([]models.UserProduct, error) {
	var items []models.UserProduct
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_currently_using DESC, created_at DESC").
		Find(&items).Error
	return items, err
}

func (s *ProductService) Create(ctx context.Context, product *models.UserProduct) error {
	product.ID = uuid.New()
	return s.db.WithContext(ctx).Create(product).Error
}

type UpdateProductRequest struct {
	ProductName      *string   `json:"product_name"`
	Brand            *string   `json:"brand"`
	Category         *string   `json:"category"`
	KeyIngredients   *[]string `json:"key_ingredients"`
	IsCurrentlyUsing *bool     `json:"is_currently_using"`
	Notes            *string   `json:"notes"`
}

func (s *ProductService) Update(ctx context.Context, userID, id uuid.UUID, req UpdateProductRequest) (*models.UserProduct, error) {
	var product models.UserProduct
	err := s.db.WithContext(ctx).First(&product, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.ProductName != nil {
		product.ProductName = *req.ProductName
	}
	if req.Brand != nil {
		product.Brand = req.Brand
	}
	if req.Category != nil {
		product.Category = req.Category
	}
	if req.KeyIngredients != nil {
		product.KeyIngredients = *req.KeyIngredients
	}
	if req.IsCurrentlyUsing != nil {
		product.IsCurrentlyUsing = *req.IsCurrentlyUsing
	}
	if req.Notes != nil {
		product.Notes = req.Notes
	}
	if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.UserProduct{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
