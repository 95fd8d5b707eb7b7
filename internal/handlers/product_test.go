package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

func queryContext(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/products?"+rawQuery, nil)
	return c
}

func TestParseProductQuery_Defaults(t *testing.T) {
	q, err := ParseProductQuery(queryContext(""))
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 25, q.Limit)
	assert.True(t, q.MinPrice.Equal(decimal.Zero))
	assert.True(t, q.MaxPrice.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, "id", q.SortBy)
	assert.False(t, q.Desc)
	assert.False(t, q.HideOutOfStock)
}

func TestParseProductQuery_Values(t *testing.T) {
	q, err := ParseProductQuery(queryContext(
		"page=3&limit=10&minPrice=2.5&maxPrice=40&category=kit&supplier=north&hideOutOfStock=true&sortBy=price&order=DESC"))
	require.NoError(t, err)

	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, "2.5", q.MinPrice.String())
	assert.Equal(t, "40", q.MaxPrice.String())
	assert.Equal(t, "kit", q.Category)
	assert.Equal(t, "north", q.Supplier)
	assert.True(t, q.HideOutOfStock)
	assert.Equal(t, "price", q.SortBy)
	assert.True(t, q.Desc)
}

func TestParseProductQuery_UnknownOrderIsAscending(t *testing.T) {
	q, err := ParseProductQuery(queryContext("order=sideways"))
	require.NoError(t, err)
	assert.False(t, q.Desc)
}

func TestParseProductQuery_Errors(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"page=0&limit=x", "Invalid query. Argument `skip` is missing."},
		{"page=2&limit=-1", "Invalid query. Argument `take` is missing."},
		{"minPrice=cheap", "Invalid query. Argument `minPrice` must be a number."},
		{"maxPrice=", "Invalid query. Argument `maxPrice` must be a number."},
		{"sortBy=prise", "Unknown argument `prise`. Did you mean `price`?"},
		{"sortBy=popularity", "Unknown argument `popularity`."},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := ParseProductQuery(queryContext(tt.query))
			appErr, ok := utils.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
			assert.Equal(t, utils.ShapeMsg, appErr.Shape)
			assert.Equal(t, tt.want, appErr.Message)
		})
	}
}

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) ListProducts(ctx context.Context, q services.ProductQuery) (*services.ProductPage, error) {
	args := m.Called(ctx, q)
	page, _ := args.Get(0).(*services.ProductPage)
	return page, args.Error(1)
}

func (m *mockProductService) GetProduct(ctx context.Context, id uint) (*models.ProductDetail, error) {
	args := m.Called(ctx, id)
	detail, _ := args.Get(0).(*models.ProductDetail)
	return detail, args.Error(1)
}

func (m *mockProductService) Bestsellers(ctx context.Context, category, supplier string, params utils.PaginationParams) (*services.BestsellerPage, error) {
	args := m.Called(ctx, category, supplier, params)
	page, _ := args.Get(0).(*services.BestsellerPage)
	return page, args.Error(1)
}

func (m *mockProductService) ProductReviews(ctx context.Context, productID uint, params utils.PaginationParams) (*services.ReviewPage, error) {
	args := m.Called(ctx, productID, params)
	page, _ := args.Get(0).(*services.ReviewPage)
	return page, args.Error(1)
}

type ProductHandlerTestSuite struct {
	suite.Suite
	service *mockProductService
	router  *gin.Engine
}

func (s *ProductHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.service = new(mockProductService)
	handler := NewProductHandler(s.service)

	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.router.GET("/products", handler.GetProducts)
	s.router.GET("/products/bestsellers", handler.GetBestsellers)
	s.router.GET("/products/:id", handler.GetProduct)
}

func (s *ProductHandlerTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (s *ProductHandlerTestSuite) TestGetProducts_RendersPage() {
	s.service.On("ListProducts", mock.Anything, mock.MatchedBy(func(q services.ProductQuery) bool {
		return q.Category == "kitchen" && q.Page == 2
	})).Return(&services.ProductPage{
		Products: []models.ProductListing{{Product: models.Product{ID: 4, Name: "Kettle"}, NumOfTimesOrdered: 3}},
		Page:     utils.Page{Page: 2, Count: 1, TotalResults: 26},
	}, nil)

	w := s.get("/products?category=kitchen&page=2")

	s.Equal(http.StatusOK, w.Code)
	s.Equal("26", w.Header().Get("X-Total-Count"))
	s.Contains(w.Body.String(), `"numOfTimesOrdered":3`)
	s.Contains(w.Body.String(), `"totalResults":26`)
}

func (s *ProductHandlerTestSuite) TestGetProducts_InvalidQueryNeverReachesService() {
	w := s.get("/products?sortBy=prise")

	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq("{\"msg\":\"Unknown argument `prise`. Did you mean `price`?\"}", w.Body.String())
	s.service.AssertNotCalled(s.T(), "ListProducts", mock.Anything, mock.Anything)
}

func (s *ProductHandlerTestSuite) TestGetBestsellers_PassesFilters() {
	s.service.On("Bestsellers", mock.Anything, "kitchen", "", utils.PaginationParams{Page: 1, Limit: 5}).
		Return(&services.BestsellerPage{Page: utils.Page{Page: 1}}, nil)

	w := s.get("/products/bestsellers?category=kitchen&limit=5")

	s.Equal(http.StatusOK, w.Code)
	s.service.AssertExpectations(s.T())
}

func (s *ProductHandlerTestSuite) TestGetProduct_MalformedIDIsNotFound() {
	w := s.get("/products/kettle")

	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"msg":"Not found."}`, w.Body.String())
}

func (s *ProductHandlerTestSuite) TestGetProduct_OmitsAverageWithoutReviews() {
	s.service.On("GetProduct", mock.Anything, uint(4)).
		Return(&models.ProductDetail{Product: models.Product{ID: 4}, TotalRatings: 0}, nil)

	w := s.get("/products/4")

	s.Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "averageRating")
	s.Contains(w.Body.String(), `"totalRatings":0`)
}

func TestProductHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProductHandlerTestSuite))
}
