// internal/models/product.go
package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null;index"`
	Stock        int             `json:"stock" gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	CategoryName string          `json:"categoryName" gorm:"size:100;not null;index"`
	SupplierName string          `json:"supplierName" gorm:"size:100;not null;index"`
	Thumbnail    string          `json:"thumbnail" gorm:"size:512"`
}

type Category struct {
	Name        string `json:"name" gorm:"primaryKey;size:100"`
	Description string `json:"description" gorm:"type:text"`
	Thumbnail   string `json:"thumbnail" gorm:"size:512"`

	Products []Product `json:"-" gorm:"foreignKey:CategoryName;references:Name;constraint:OnUpdate:CASCADE"`
}

type Supplier struct {
	Name          string `json:"name" gorm:"primaryKey;size:100"`
	Location      string `json:"location" gorm:"size:255"`
	Description   string `json:"description" gorm:"type:text"`
	EstablishYear int    `json:"establishYear"`
	Thumbnail     string `json:"thumbnail" gorm:"size:512"`

	Products []Product `json:"-" gorm:"foreignKey:SupplierName;references:Name;constraint:OnUpdate:CASCADE"`
}

// ProductListing is a catalog row with its order count.
type ProductListing struct {
	Product
	NumOfTimesOrdered int64 `json:"numOfTimesOrdered"`
}

// ProductDetail carries the rating and order aggregates for a single product.
type ProductDetail struct {
	Product
	AverageRating     *decimal.Decimal `json:"averageRating,omitempty"`
	TotalRatings      int64            `json:"totalRatings"`
	NumOfTimesOrdered int64            `json:"numOfTimesOrdered"`
}

type Bestseller struct {
	Product
	NumOfTimesOrdered int64           `json:"numOfTimesOrdered"`
	TotalUnitsOrdered int64           `json:"totalUnitsOrdered"`
	AverageRating     decimal.Decimal `json:"averageRating"`
}
