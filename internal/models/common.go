// internal/models/common.go
package models

// Enums
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
)

// RedactedPassword is rendered in place of every stored password hash.
const RedactedPassword = "**********"
