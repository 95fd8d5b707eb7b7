// internal/services/catalog_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
)

type CatalogService struct {
	db *gorm.DB
}

type CategorySummary struct {
	models.Category
	ProductCount int64 `json:"productCount"`
}

type SupplierSummary struct {
	models.Supplier
	ProductCount int64 `json:"productCount"`
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	categories := []CategorySummary{}
	err := s.db.WithContext(ctx).
		Table("categories AS c").
		Select("c.name, c.description, c.thumbnail, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.category_name = c.name").
		Group("c.name").
		Order("c.name ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) ListSuppliers(ctx context.Context) ([]SupplierSummary, error) {
	suppliers := []SupplierSummary{}
	err := s.db.WithContext(ctx).
		Table("suppliers AS s").
		Select("s.name, s.location, s.description, s.establish_year, s.thumbnail, COUNT(p.id) AS product_count").
		Joins("LEFT JOIN products p ON p.supplier_name = s.name").
		Group("s.name").
		Order("s.name ASC").
		Scan(&suppliers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}
