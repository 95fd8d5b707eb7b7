// internal/services/product_query.go
package services

import (
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront-backend/internal/utils"
)

var (
	defaultMinPrice = decimal.Zero
	defaultMaxPrice = decimal.NewFromInt(100000)
)

// sortableColumns maps the public sort keys to product columns.
var sortableColumns = map[string]string{
	"id":           "id",
	"name":         "name",
	"description":  "description",
	"price":        "price",
	"stock":        "stock",
	"categoryName": "category_name",
	"supplierName": "supplier_name",
	"thumbnail":    "thumbnail",
}

var sortKeys = []string{"id", "name", "description", "price", "stock", "categoryName", "supplierName", "thumbnail"}

// ProductQuery is a validated catalog listing request.
type ProductQuery struct {
	utils.PaginationParams
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	Category       string
	Supplier       string
	HideOutOfStock bool
	SortBy         string
	Desc           bool
}

func DefaultProductQuery() ProductQuery {
	return ProductQuery{
		PaginationParams: utils.PaginationParams{Page: utils.DefaultPage, Limit: utils.DefaultLimit},
		MinPrice:         defaultMinPrice,
		MaxPrice:         defaultMaxPrice,
		SortBy:           "id",
	}
}

// CheckSortKey rejects keys outside the sortable whitelist, naming the
// closest key when exactly one is near.
func CheckSortKey(key string) error {
	if _, known := sortableColumns[key]; known {
		return nil
	}
	return unknownSortKey(key)
}

func unknownSortKey(key string) error {
	if suggestion, ok := utils.Suggest(key, sortKeys, 2); ok {
		return utils.NewMsgError(http.StatusBadRequest,
			fmt.Sprintf("Unknown argument `%s`. Did you mean `%s`?", key, suggestion))
	}
	return utils.NewMsgError(http.StatusBadRequest, fmt.Sprintf("Unknown argument `%s`.", key))
}

// OrderClause renders the ORDER BY expression with id as the tie-breaker.
func (q ProductQuery) OrderClause() string {
	column, ok := sortableColumns[q.SortBy]
	if !ok {
		column = "id"
	}

	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	clause := "products." + pq.QuoteIdentifier(column) + " " + direction
	if column != "id" {
		clause += ", products.\"id\" ASC"
	}
	return clause
}
