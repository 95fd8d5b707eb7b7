// internal/handlers/review.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ReviewService interface {
	CreateReview(ctx context.Context, customerID uint, req *services.CreateReviewRequest) (*models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review, req *services.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, review *models.Review) error
	CustomerReviews(ctx context.Context, customerID uint, params utils.PaginationParams) (*services.ReviewPage, error)
	Favorites(ctx context.Context, customerID uint, params utils.PaginationParams) (*services.FavoritesPage, error)
}

type ReviewHandler struct {
	reviewService ReviewService
}

func NewReviewHandler(reviewService ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), p.CustomerID, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.CreatedResponse(c, review)
}

// PUT /reviews/:id
// LoadReview and the owner check have already run.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	review, ok := middleware.LoadedReview(c)
	if !ok {
		utils.Fail(c, utils.NotFoundError(utils.MsgNotFound))
		return
	}

	var req services.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.reviewService.UpdateReview(c.Request.Context(), review, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, updated)
}

// DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	review, ok := middleware.LoadedReview(c)
	if !ok {
		utils.Fail(c, utils.NotFoundError(utils.MsgNotFound))
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), review); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// GET /customers/:id/reviews
func (h *ReviewHandler) GetCustomerReviews(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	params, ok := pagination(c)
	if !ok {
		return
	}

	page, err := h.reviewService.CustomerReviews(c.Request.Context(), id, params)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SetPaginationHeaders(c, page.Page)
	utils.SuccessResponse(c, page)
}

// GET /customers/:id/favorites
func (h *ReviewHandler) GetFavorites(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	params, ok := pagination(c)
	if !ok {
		return
	}

	page, err := h.reviewService.Favorites(c.Request.Context(), id, params)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SetPaginationHeaders(c, page.Page)
	utils.SuccessResponse(c, page)
}
