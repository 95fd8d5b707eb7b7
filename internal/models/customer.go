// internal/models/customer.go
package models

import (
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Customer struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"size:255;not null"`
	Username          string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email             string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password          string    `json:"password" gorm:"size:255;not null"`
	JoinDate          time.Time `json:"joinDate" gorm:"autoCreateTime"`
	Phone             *string   `json:"phone" gorm:"size:50"`
	Avatar            *string   `json:"avatar" gorm:"size:512"`
	BillingAddressID  *uint     `json:"billingAddressId"`
	ShippingAddressID *uint     `json:"shippingAddressId"`

	// Relationships
	BillingAddress  *Address       `json:"billingAddress,omitempty" gorm:"foreignKey:BillingAddressID"`
	ShippingAddress *Address       `json:"shippingAddress,omitempty" gorm:"foreignKey:ShippingAddressID"`
	OAuth           *OAuthProfile  `json:"oAuth,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Orders          []Order        `json:"orders,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Reviews         []Review       `json:"reviews,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CartItems       []CartItem     `json:"cartItems,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	WishlistItems   []WishlistItem `json:"wishlistItems,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Sessions        []Session      `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (c *Customer) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.Password = string(hashedPassword)
	return nil
}

func (c *Customer) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password))
}

// MarshalJSON never exposes the password hash.
func (c Customer) MarshalJSON() ([]byte, error) {
	type customerAlias Customer
	alias := customerAlias(c)
	alias.Password = RedactedPassword
	return json.Marshal(alias)
}

// OAuthProfile links a customer to an identity provider account.
type OAuthProfile struct {
	ID         uint   `json:"-" gorm:"primaryKey"`
	AuthID     string `json:"authId" gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_auth"`
	Provider   string `json:"provider" gorm:"size:50;not null;uniqueIndex:idx_oauth_provider_auth"`
	CustomerID uint   `json:"customerId" gorm:"uniqueIndex;not null"`
}

func (OAuthProfile) TableName() string {
	return "oauth_profiles"
}
