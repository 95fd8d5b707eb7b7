// internal/models/cart.go
package models

type CartItem struct {
	CustomerID uint `json:"-" gorm:"primaryKey"`
	ProductID  uint `json:"productId" gorm:"primaryKey;index"`
	Quantity   int  `json:"quantity" gorm:"not null;check:chk_cart_items_quantity,quantity > 0"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

type WishlistItem struct {
	CustomerID uint `json:"-" gorm:"primaryKey"`
	ProductID  uint `json:"productId" gorm:"primaryKey;index"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}
