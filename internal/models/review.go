// internal/models/review.go
package models

import (
	"time"
)

type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID uint      `json:"customerId" gorm:"not null;index"`
	ProductID  uint      `json:"productId" gorm:"not null;index"`
	OrderID    *uint     `json:"orderId" gorm:"index"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	Body       string    `json:"body" gorm:"type:text;not null"`
	Rating     int       `json:"rating" gorm:"not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5"`
	Recommend  bool      `json:"recommend" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`

	// Relationships
	Customer *ReviewAuthor `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Product  *Product      `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// ReviewAuthor is the public projection of a customer attached to reviews.
type ReviewAuthor struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	Username string  `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Avatar   *string `json:"avatar" gorm:"size:512"`
}

func (ReviewAuthor) TableName() string {
	return "customers"
}
