// internal/handlers/product.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProductService interface {
	ListProducts(ctx context.Context, q services.ProductQuery) (*services.ProductPage, error)
	GetProduct(ctx context.Context, id uint) (*models.ProductDetail, error)
	Bestsellers(ctx context.Context, category, supplier string, params utils.PaginationParams) (*services.BestsellerPage, error)
	ProductReviews(ctx context.Context, productID uint, params utils.PaginationParams) (*services.ReviewPage, error)
}

type ProductHandler struct {
	productService ProductService
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// ParseProductQuery reads the listing query string over the defaults. The
// first invalid argument is reported.
func ParseProductQuery(c *gin.Context) (services.ProductQuery, error) {
	q := services.DefaultProductQuery()

	params, err := utils.ParsePagination(c)
	if err != nil {
		return q, err
	}
	q.PaginationParams = params

	for _, bound := range []struct {
		name   string
		target *decimal.Decimal
	}{
		{"minPrice", &q.MinPrice},
		{"maxPrice", &q.MaxPrice},
	} {
		raw, ok := c.GetQuery(bound.name)
		if !ok {
			continue
		}
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return q, utils.NewMsgError(http.StatusBadRequest,
				fmt.Sprintf("Invalid query. Argument `%s` must be a number.", bound.name))
		}
		*bound.target = value
	}

	q.Category = c.Query("category")
	q.Supplier = c.Query("supplier")

	if raw := c.Query("hideOutOfStock"); raw != "" {
		q.HideOutOfStock, _ = strconv.ParseBool(raw)
	}

	if sortBy, ok := c.GetQuery("sortBy"); ok {
		if err := services.CheckSortKey(sortBy); err != nil {
			return q, err
		}
		q.SortBy = sortBy
	}

	// Anything but "desc" sorts ascending
	q.Desc = strings.EqualFold(c.Query("order"), "desc")

	return q, nil
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	q, err := ParseProductQuery(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	page, err := h.productService.ListProducts(c.Request.Context(), q)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SetPaginationHeaders(c, page.Page)
	utils.SuccessResponse(c, page)
}

// GET /products/bestsellers
func (h *ProductHandler) GetBestsellers(c *gin.Context) {
	params, ok := pagination(c)
	if !ok {
		return
	}

	page, err := h.productService.Bestsellers(c.Request.Context(), c.Query("category"), c.Query("supplier"), params)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SetPaginationHeaders(c, page.Page)
	utils.SuccessResponse(c, page)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/:id/reviews
func (h *ProductHandler) GetProductReviews(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	params, ok := pagination(c)
	if !ok {
		return
	}

	page, err := h.productService.ProductReviews(c.Request.Context(), id, params)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SetPaginationHeaders(c, page.Page)
	utils.SuccessResponse(c, page)
}

// productID reports malformed ids in the same shape as missing products.
func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Fail(c, utils.NewMsgError(http.StatusNotFound, utils.MsgNotFound))
		return 0, false
	}
	return uint(id), true
}
