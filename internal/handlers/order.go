// internal/handlers/order.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID uint, req services.PlaceOrderRequest) (*services.PlacedOrder, error)
	GetOrders(ctx context.Context, customerID uint) (*services.CustomerOrders, error)
	GetOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error)
	OrderHistory(ctx context.Context, customerID, productID uint) (*services.OrderHistory, error)
}

type OrderHandler struct {
	orderService OrderService
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// GET /customers/:id/orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.GetOrders(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, orders)
}

// POST /customers/:id/orders
// The request has already passed ValidateNewOrder.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	submission, ok := middleware.NewOrderSubmission(c)
	if !ok {
		utils.Fail(c, utils.ValidationError(middleware.MsgBothAddressesNeeded))
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), id, services.PlaceOrderRequest{
		Billing:       *submission.Addresses.Billing,
		Shipping:      *submission.Addresses.Shipping,
		PaymentMethod: submission.Payment.Method,
		Total:         submission.Payment.Total,
		Item:          submission.Item,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.CreatedResponse(c, order)
}

// GET /customers/:id/orders/:orderId
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id, orderID)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// GET /customers/:id/orders/products/:productId
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	history, err := h.orderService.OrderHistory(c.Request.Context(), id, productID)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, history)
}
