// internal/handlers/cart.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CartService interface {
	GetCart(ctx context.Context, customerID uint) ([]models.CartItem, error)
	UpdateCart(ctx context.Context, customerID uint, req *services.UpdateCartRequest) ([]models.CartItem, error)
	GetWishlist(ctx context.Context, customerID uint) ([]models.WishlistItem, error)
	ToggleWishlist(ctx context.Context, customerID uint, req *services.ToggleWishlistRequest) ([]models.WishlistItem, error)
}

type CartHandler struct {
	cartService CartService
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GET /customers/:id/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// PUT /customers/:id/cart
func (h *CartHandler) UpdateCart(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req services.UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.UpdateCart(c.Request.Context(), id, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"cart": cart})
}

// GET /customers/:id/wishlist
func (h *CartHandler) GetWishlist(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	wishlist, err := h.cartService.GetWishlist(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"wishlist": wishlist})
}

// PUT /customers/:id/wishlist
func (h *CartHandler) ToggleWishlist(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req services.ToggleWishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	wishlist, err := h.cartService.ToggleWishlist(c.Request.Context(), id, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"wishlist": wishlist})
}
