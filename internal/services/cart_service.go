// internal/services/cart_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CartService struct {
	db *gorm.DB
}

type UpdateCartRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	// Quantity 0 removes the product from the cart.
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type ToggleWishlistRequest struct {
	ProductID uint `json:"productId" validate:"required"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func (s *CartService) GetCart(ctx context.Context, customerID uint) ([]models.CartItem, error) {
	cart := []models.CartItem{}
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ?", customerID).
		Order("product_id ASC").
		Find(&cart).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// UpdateCart sets the quantity of a product in the cart.
func (s *CartService) UpdateCart(ctx context.Context, customerID uint, req *UpdateCartRequest) ([]models.CartItem, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if *req.Quantity == 0 {
			return tx.Where("customer_id = ? AND product_id = ?", customerID, req.ProductID).
				Delete(&models.CartItem{}).Error
		}

		var product models.Product
		if err := tx.Select("id", "stock").Where("id = ?", req.ProductID).Limit(1).Find(&product).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if product.ID == 0 {
			return utils.NotFoundError(utils.MsgProductUnknown)
		}
		if *req.Quantity > product.Stock {
			return utils.ValidationError(utils.MsgInsufficientStock)
		}

		item := models.CartItem{CustomerID: customerID, ProductID: req.ProductID, Quantity: *req.Quantity}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
		}).Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, customerID)
}

func (s *CartService) GetWishlist(ctx context.Context, customerID uint) ([]models.WishlistItem, error) {
	wishlist := []models.WishlistItem{}
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ?", customerID).
		Order("product_id ASC").
		Find(&wishlist).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return wishlist, nil
}

// ToggleWishlist removes the product from the wishlist when present and
// adds it otherwise.
func (s *CartService) ToggleWishlist(ctx context.Context, customerID uint, req *ToggleWishlistRequest) ([]models.WishlistItem, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		res := tx.Where("customer_id = ? AND product_id = ?", customerID, req.ProductID).Delete(&models.WishlistItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to update wishlist: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var products int64
		if err := tx.Model(&models.Product{}).Where("id = ?", req.ProductID).Count(&products).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if products == 0 {
			return utils.NotFoundError(utils.MsgProductUnknown)
		}

		item := models.WishlistItem{CustomerID: customerID, ProductID: req.ProductID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetWishlist(ctx, customerID)
}
