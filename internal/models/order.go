// internal/models/order.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	CustomerID        uint            `json:"customerId" gorm:"not null;index"`
	BillingAddressID  uint            `json:"billingAddressId" gorm:"not null"`
	ShippingAddressID uint            `json:"shippingAddressId" gorm:"not null"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'completed'"`
	PaymentMethod     string          `json:"paymentMethod" gorm:"size:50;not null"`
	PaymentIntentID   *string         `json:"paymentIntentId,omitempty" gorm:"size:255"`
	Total             decimal.Decimal `json:"total" gorm:"type:numeric(10,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"index"`

	// Relationships
	BillingAddress  *Address    `json:"billingAddress,omitempty" gorm:"foreignKey:BillingAddressID"`
	ShippingAddress *Address    `json:"shippingAddress,omitempty" gorm:"foreignKey:ShippingAddressID"`
	OrderItems      []OrderItem `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	OrderID   uint `json:"-" gorm:"primaryKey"`
	ProductID uint `json:"productId" gorm:"primaryKey;index"`
	Quantity  int  `json:"quantity" gorm:"not null;check:chk_order_items_quantity,quantity > 0"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// LineItem is a requested product quantity before it is written to an order.
type LineItem struct {
	ProductID uint
	Quantity  int
}
