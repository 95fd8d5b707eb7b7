// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/metrics"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const MsgEmptyOrder = "Order must contain at least one item."

type OrderService struct {
	db        *gorm.DB
	addresses *AddressService
	payments  PaymentProvider
	metrics   *metrics.Metrics
}

type PlaceOrderRequest struct {
	Billing       models.AddressInput
	Shipping      models.AddressInput
	PaymentMethod string
	Total         decimal.Decimal
	// Item orders a single product. When nil the customer's cart is
	// checked out instead.
	Item *models.LineItem
}

type PlacedOrder struct {
	*models.Order
	ClientSecret string `json:"clientSecret,omitempty"`
}

type CustomerOrders struct {
	ID       uint           `json:"id"`
	Name     string         `json:"name"`
	Username string         `json:"username"`
	Orders   []models.Order `json:"orders"`
}

type LastOrdered struct {
	OrderID   uint      `json:"orderId"`
	OrderDate time.Time `json:"orderDate"`
}

type OrderHistory struct {
	ProductID   uint           `json:"productId"`
	LastOrdered *LastOrdered   `json:"lastOrdered"`
	Review      *models.Review `json:"review"`
}

func NewOrderService(db *gorm.DB, addresses *AddressService, payments PaymentProvider, m *metrics.Metrics) *OrderService {
	return &OrderService{
		db:        db,
		addresses: addresses,
		payments:  payments,
		metrics:   m,
	}
}

// PlaceOrder reconciles the addresses, decrements stock and writes the
// order in one transaction. Any failure rolls every step back and cancels
// the payment intent of a card order.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID uint, req PlaceOrderRequest) (*PlacedOrder, error) {
	order := &models.Order{
		CustomerID:    customerID,
		Status:        models.OrderStatusCompleted,
		PaymentMethod: req.PaymentMethod,
		Total:         req.Total,
	}

	// The intent is opened before any row is locked and cancelled when the
	// order does not commit.
	var intent *PaymentIntent
	if s.payments != nil && s.payments.Handles(req.PaymentMethod) {
		var err error
		if intent, err = s.payments.CreateIntent(ctx, customerID, req.Total); err != nil {
			return nil, err
		}
		order.Status = models.OrderStatusPending
		order.PaymentIntentID = &intent.ID
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		billing, shipping, err := s.addresses.ReconcilePair(tx, &req.Billing, &req.Shipping)
		if err != nil {
			return err
		}
		order.BillingAddressID = billing.ID
		order.ShippingAddressID = shipping.ID

		items, fromCart, err := s.lineItems(tx, customerID, req.Item)
		if err != nil {
			return err
		}

		if err := decrementStock(tx, items); err != nil {
			return err
		}

		for _, item := range items {
			order.OrderItems = append(order.OrderItems, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if fromCart {
			if err := tx.Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error; err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if intent != nil {
			s.cancelIntent(intent.ID)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrder(order.PaymentMethod, string(order.Status))
	}
	logrus.WithFields(logrus.Fields{
		"customer_id": customerID,
		"order_id":    order.ID,
		"items":       len(order.OrderItems),
		"total":       order.Total.StringFixed(2),
		"status":      order.Status,
	}).Info("Order placed")

	placed, err := s.GetOrder(ctx, customerID, order.ID)
	if err != nil {
		return nil, err
	}
	result := &PlacedOrder{Order: placed}
	if intent != nil {
		result.ClientSecret = intent.ClientSecret
	}
	return result, nil
}

// cancelIntent is not bound to the request context.
func (s *OrderService) cancelIntent(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.payments.CancelIntent(ctx, id); err != nil {
		logrus.WithError(err).WithField("payment_intent_id", id).Error("Failed to cancel payment intent of a failed order")
	}
}

// lineItems returns the items to order and whether they came from the cart.
func (s *OrderService) lineItems(tx *gorm.DB, customerID uint, item *models.LineItem) ([]models.LineItem, bool, error) {
	if item != nil {
		return []models.LineItem{*item}, false, nil
	}

	var cart []models.CartItem
	if err := tx.Where("customer_id = ?", customerID).Find(&cart).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart) == 0 {
		return nil, false, utils.ValidationError(MsgEmptyOrder)
	}

	items := make([]models.LineItem, 0, len(cart))
	for _, c := range cart {
		items = append(items, models.LineItem{ProductID: c.ProductID, Quantity: c.Quantity})
	}
	return items, true, nil
}

// decrementStock takes stock for each item with a conditional update, in
// product id order so concurrent orders lock rows in the same sequence.
func decrementStock(tx *gorm.DB, items []models.LineItem) error {
	sorted := make([]models.LineItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, item := range sorted {
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			continue
		}

		var exists int64
		if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Count(&exists).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if exists == 0 {
			return utils.NotFoundError(utils.MsgProductUnknown)
		}
		return utils.ValidationError(utils.MsgInsufficientStock)
	}
	return nil
}

func (s *OrderService) GetOrders(ctx context.Context, customerID uint) (*CustomerOrders, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Select("id", "name", "username").Take(&customer, customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError(utils.MsgNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	orders := []models.Order{}
	err = s.db.WithContext(ctx).
		Preload("OrderItems.Product").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &CustomerOrders{
		ID:       customer.ID,
		Name:     customer.Name,
		Username: customer.Username,
		Orders:   orders,
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("BillingAddress").
		Preload("ShippingAddress").
		Preload("OrderItems.Product").
		Where("id = ? AND customer_id = ?", orderID, customerID).
		Take(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError(utils.MsgNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// OrderHistory reports when the customer last ordered a product and their
// review of it, if any.
func (s *OrderService) OrderHistory(ctx context.Context, customerID, productID uint) (*OrderHistory, error) {
	db := s.db.WithContext(ctx)

	var products int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&products).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if products == 0 {
		return nil, utils.NotFoundError(fmt.Sprintf("Product with id %d does not exist.", productID))
	}

	history := &OrderHistory{ProductID: productID}

	var last models.Order
	err := db.
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.customer_id = ? AND order_items.product_id = ?", customerID, productID).
		Order("orders.created_at DESC").
		Take(&last).Error
	switch {
	case err == nil:
		history.LastOrdered = &LastOrdered{OrderID: last.ID, OrderDate: last.CreatedAt}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("database error: %w", err)
	}

	var review models.Review
	err = db.Where("customer_id = ? AND product_id = ?", customerID, productID).Take(&review).Error
	switch {
	case err == nil:
		history.Review = &review
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("database error: %w", err)
	}

	return history, nil
}
