package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, customerID uint, req services.PlaceOrderRequest) (*services.PlacedOrder, error) {
	args := m.Called(ctx, customerID, req)
	order, _ := args.Get(0).(*services.PlacedOrder)
	return order, args.Error(1)
}

func (m *mockOrderService) GetOrders(ctx context.Context, customerID uint) (*services.CustomerOrders, error) {
	args := m.Called(ctx, customerID)
	orders, _ := args.Get(0).(*services.CustomerOrders)
	return orders, args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	args := m.Called(ctx, customerID, orderID)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) OrderHistory(ctx context.Context, customerID, productID uint) (*services.OrderHistory, error) {
	args := m.Called(ctx, customerID, productID)
	history, _ := args.Get(0).(*services.OrderHistory)
	return history, args.Error(1)
}

type productShelf map[uint]*models.Product

func (p productShelf) FindProduct(_ context.Context, id uint) (*models.Product, error) {
	return p[id], nil
}

type OrderHandlerTestSuite struct {
	suite.Suite
	service *mockOrderService
	router  *gin.Engine
}

func (s *OrderHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.service = new(mockOrderService)
	handler := NewOrderHandler(s.service)
	shelf := productShelf{4: {ID: 4, Name: "Kettle", Stock: 3}}

	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.router.POST("/customers/:id/orders", middleware.ValidateNewOrder(shelf), handler.CreateOrder)
	s.router.GET("/customers/:id/orders/:orderId", handler.GetOrder)
}

func (s *OrderHandlerTestSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/customers/7/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const orderAddresses = `"billingAddress":{"addressLine1":"1 High St","city":"Leeds","postcode":"LS1 1AA"},
	"shippingAddress":{"addressLine1":"2 Low Rd","city":"York","postcode":"YO1 1AA"}`

func (s *OrderHandlerTestSuite) TestCreateOrder_SingleItem() {
	s.service.On("PlaceOrder", mock.Anything, uint(7), mock.MatchedBy(func(req services.PlaceOrderRequest) bool {
		return req.PaymentMethod == "card" &&
			req.Total.Equal(decimal.RequireFromString("19.99")) &&
			req.Item != nil && req.Item.ProductID == 4 && req.Item.Quantity == 2 &&
			req.Billing.City == "Leeds" && req.Shipping.City == "York"
	})).Return(&services.PlacedOrder{Order: &models.Order{ID: 11, CustomerID: 7}}, nil)

	w := s.post(`{` + orderAddresses + `,"paymentMethod":"card","total":19.99,"item":{"productId":4,"quantity":2}}`)

	s.Equal(http.StatusCreated, w.Code)
	s.Contains(w.Body.String(), `"id":11`)
	s.service.AssertExpectations(s.T())
}

func (s *OrderHandlerTestSuite) TestCreateOrder_CartCheckoutHasNoItem() {
	s.service.On("PlaceOrder", mock.Anything, uint(7), mock.MatchedBy(func(req services.PlaceOrderRequest) bool {
		return req.Item == nil
	})).Return(&services.PlacedOrder{Order: &models.Order{ID: 12}}, nil)

	w := s.post(`{` + orderAddresses + `,"paymentMethod":"paypal","total":"40.00"}`)

	s.Equal(http.StatusCreated, w.Code)
}

func (s *OrderHandlerTestSuite) TestCreateOrder_ValidationStopsBeforeService() {
	tests := []struct {
		name   string
		body   string
		status int
		info   string
	}{
		{"missing shipping", `{"billingAddress":{"addressLine1":"1 High St","city":"Leeds","postcode":"LS1"},"paymentMethod":"card","total":5}`,
			http.StatusBadRequest, middleware.MsgBothAddressesNeeded},
		{"missing payment", `{` + orderAddresses + `,"total":5}`,
			http.StatusBadRequest, middleware.MsgPaymentMethodMissing},
		{"too many", `{` + orderAddresses + `,"paymentMethod":"card","total":5,"item":{"productId":4,"quantity":9}}`,
			http.StatusBadRequest, middleware.MsgInsufficientStock},
		{"unknown product", `{` + orderAddresses + `,"paymentMethod":"card","total":5,"item":{"productId":40,"quantity":1}}`,
			http.StatusNotFound, middleware.MsgItemProductUnknown},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.post(tt.body)
			s.Equal(tt.status, w.Code)
			s.Contains(w.Body.String(), tt.info)
		})
	}
	s.service.AssertNotCalled(s.T(), "PlaceOrder", mock.Anything, mock.Anything, mock.Anything)
}

func (s *OrderHandlerTestSuite) TestGetOrder_MalformedOrderID() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/7/orders/latest", nil))

	s.Equal(http.StatusNotFound, w.Code)
	s.service.AssertNotCalled(s.T(), "GetOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}
