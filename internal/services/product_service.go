// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/report"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type ProductPage struct {
	Products []models.ProductListing `json:"products"`
	utils.Page
}

type BestsellerPage struct {
	BestSellers []models.Bestseller `json:"bestSellers"`
	utils.Page
}

type ReviewPage struct {
	Reviews []models.Review `json:"reviews"`
	utils.Page
}

const timesOrderedSubquery = "(SELECT COUNT(*) FROM order_items oi WHERE oi.product_id = products.id) AS num_of_times_ordered"

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// filtered builds the listing predicate. Every call returns a fresh
// statement so the count and page queries do not share clauses.
func (s *ProductService) filtered(ctx context.Context, q ProductQuery) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("products.price BETWEEN ? AND ?", q.MinPrice, q.MaxPrice).
		Where(`products.category_name ILIKE ? ESCAPE '\'`, report.ContainsPattern(q.Category)).
		Where(`products.supplier_name ILIKE ? ESCAPE '\'`, report.ContainsPattern(q.Supplier))

	if q.HideOutOfStock {
		query = query.Where("products.stock <> 0")
	}
	return query
}

func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if err := CheckSortKey(q.SortBy); err != nil {
		return nil, err
	}

	var total int64
	if err := s.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products := []models.ProductListing{}
	err := utils.ApplyPagination(s.filtered(ctx, q), q.PaginationParams).
		Select("products.*, " + timesOrderedSubquery).
		Order(q.OrderClause()).
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{
		Products: products,
		Page:     utils.NewPage(q.PaginationParams, len(products), total),
	}, nil
}

// FindProduct returns nil when the product does not exist.
func (s *ProductService) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Take(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.ProductDetail, error) {
	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, utils.NewMsgError(http.StatusNotFound, utils.MsgNotFound)
	}

	var ratings struct {
		AverageRating decimal.NullDecimal
		TotalRatings  int64
	}
	err = s.db.WithContext(ctx).Model(&models.Review{}).
		Select("ROUND(AVG(rating)::numeric, 2) AS average_rating, COUNT(rating) AS total_ratings").
		Where("product_id = ?", id).
		Scan(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	var timesOrdered int64
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&timesOrdered).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	detail := &models.ProductDetail{
		Product:           *product,
		TotalRatings:      ratings.TotalRatings,
		NumOfTimesOrdered: timesOrdered,
	}
	if ratings.AverageRating.Valid {
		detail.AverageRating = &ratings.AverageRating.Decimal
	}
	return detail, nil
}

// Bestsellers runs the bestsellers report against the database.
func (s *ProductService) Bestsellers(ctx context.Context, category, supplier string, params utils.PaginationParams) (*BestsellerPage, error) {
	spec := report.Bestsellers(category, supplier, params.Limit, params.Offset())

	countSQL, countArgs, err := spec.CountSQL()
	if err != nil {
		return nil, err
	}
	pageSQL, pageArgs, err := spec.SQL()
	if err != nil {
		return nil, err
	}

	var total int64
	bestsellers := []models.Bestseller{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
			return fmt.Errorf("failed to count bestsellers: %w", err)
		}
		if err := tx.Raw(pageSQL, pageArgs...).Scan(&bestsellers).Error; err != nil {
			return fmt.Errorf("failed to rank bestsellers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BestsellerPage{
		BestSellers: bestsellers,
		Page:        utils.NewPage(params, len(bestsellers), total),
	}, nil
}

// ProductReviews lists a product's reviews, newest first.
func (s *ProductService) ProductReviews(ctx context.Context, productID uint, params utils.PaginationParams) (*ReviewPage, error) {
	product, err := s.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, utils.NewMsgError(http.StatusNotFound, utils.MsgNotFound)
	}

	return listReviews(s.db.WithContext(ctx).Where("product_id = ?", productID), params)
}

func listReviews(scope *gorm.DB, params utils.PaginationParams) (*ReviewPage, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&models.Review{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	reviews := []models.Review{}
	err := utils.ApplyPagination(scope.Session(&gorm.Session{}), params).
		Preload("Customer").
		Order("created_at DESC").Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return &ReviewPage{
		Reviews: reviews,
		Page:    utils.NewPage(params, len(reviews), total),
	}, nil
}
