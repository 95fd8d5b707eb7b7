// internal/services/review_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const MsgOrderMismatch = "Order does not contain this product."

type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	ProductID uint   `json:"productId" validate:"required"`
	OrderID   *uint  `json:"orderId,omitempty"`
	Title     string `json:"title" validate:"required,notblank,max=255"`
	Body      string `json:"body" validate:"required,notblank"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Recommend bool   `json:"recommend"`
}

type UpdateReviewRequest struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Body      *string `json:"body,omitempty" validate:"omitempty,notblank"`
	Rating    *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Recommend *bool   `json:"recommend,omitempty"`
}

// Favorite is a recommended review shown on the customer's favorites list.
type Favorite struct {
	ReviewID  uint            `json:"reviewId"`
	ProductID uint            `json:"productId"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Rating    int             `json:"rating"`
	AddedAt   time.Time       `json:"addedAt"`
	Product   *models.Product `json:"product"`
}

type FavoritesPage struct {
	Favorites []Favorite `json:"favorites"`
	utils.Page
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// FindReview returns nil when the review does not exist.
func (s *ReviewService) FindReview(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Take(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &review, nil
}

func (s *ReviewService) CreateReview(ctx context.Context, customerID uint, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	review := &models.Review{
		CustomerID: customerID,
		ProductID:  req.ProductID,
		OrderID:    req.OrderID,
		Title:      req.Title,
		Body:       req.Body,
		Rating:     req.Rating,
		Recommend:  req.Recommend,
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var products int64
		if err := tx.Model(&models.Product{}).Where("id = ?", req.ProductID).Count(&products).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if products == 0 {
			return utils.NotFoundError(fmt.Sprintf("Product with id %d does not exist.", req.ProductID))
		}

		if req.OrderID != nil {
			var matches int64
			err := tx.Model(&models.OrderItem{}).
				Joins("JOIN orders ON orders.id = order_items.order_id").
				Where("orders.id = ? AND orders.customer_id = ? AND order_items.product_id = ?", *req.OrderID, customerID, req.ProductID).
				Count(&matches).Error
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if matches == 0 {
				return utils.ValidationError(MsgOrderMismatch)
			}
		}

		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, review.ID)
}

// UpdateReview applies the set fields of req to an already loaded review.
func (s *ReviewService) UpdateReview(ctx context.Context, review *models.Review, req *UpdateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Recommend != nil {
		updates["recommend"] = *req.Recommend
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", review.ID).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update review: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, utils.NotFoundError(utils.MsgNotFound)
		}
	}

	return s.reload(ctx, review.ID)
}

func (s *ReviewService) DeleteReview(ctx context.Context, review *models.Review) error {
	res := s.db.WithContext(ctx).Delete(&models.Review{}, review.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError(utils.MsgNotFound)
	}
	return nil
}

// CustomerReviews lists the reviews written by a customer, newest first.
func (s *ReviewService) CustomerReviews(ctx context.Context, customerID uint, params utils.PaginationParams) (*ReviewPage, error) {
	var customers int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", customerID).Count(&customers).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if customers == 0 {
		return nil, utils.NotFoundError(utils.MsgNotFound)
	}

	return listReviews(s.db.WithContext(ctx).Where("customer_id = ?", customerID), params)
}

// Favorites lists the products the customer recommended in a review.
func (s *ReviewService) Favorites(ctx context.Context, customerID uint, params utils.PaginationParams) (*FavoritesPage, error) {
	scope := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("customer_id = ? AND recommend = ?", customerID, true).
		Session(&gorm.Session{})

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}

	var reviews []models.Review
	err := utils.ApplyPagination(scope, params).
		Preload("Product").
		Order("created_at DESC").Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	favorites := make([]Favorite, 0, len(reviews))
	for _, r := range reviews {
		favorites = append(favorites, Favorite{
			ReviewID:  r.ID,
			ProductID: r.ProductID,
			Title:     r.Title,
			Body:      r.Body,
			Rating:    r.Rating,
			AddedAt:   r.CreatedAt,
			Product:   r.Product,
		})
	}

	return &FavoritesPage{
		Favorites: favorites,
		Page:      utils.NewPage(params, len(favorites), total),
	}, nil
}

func (s *ReviewService) reload(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Product").Take(&review, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}
