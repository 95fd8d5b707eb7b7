// internal/utils/pagination.go
package utils

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25

	// MaxOffset bounds (page-1)*limit so the offset never overflows.
	MaxOffset = math.MaxInt32
)

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is the envelope shared by every paginated listing.
type Page struct {
	Page         int   `json:"page"`
	Count        int   `json:"count"`
	TotalResults int64 `json:"totalResults"`
}

func NewPage(params PaginationParams, count int, total int64) Page {
	return Page{Page: params.Page, Count: count, TotalResults: total}
}

// ParsePagination reads page and limit from the query string. Both must be
// integers of at least 1 when present. Page is checked first, and a page
// whose offset would pass MaxOffset is rejected like a malformed one.
func ParsePagination(c *gin.Context) (PaginationParams, error) {
	params := PaginationParams{Page: DefaultPage, Limit: DefaultLimit}

	if raw, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, NewMsgError(http.StatusBadRequest, "Invalid query. Argument `skip` is missing.")
		}
		params.Page = page
	}

	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, NewMsgError(http.StatusBadRequest, "Invalid query. Argument `take` is missing.")
		}
		params.Limit = limit
	}

	if params.Page-1 > MaxOffset/params.Limit {
		return params, NewMsgError(http.StatusBadRequest, "Invalid query. Argument `skip` is missing.")
	}

	return params, nil
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.Limit)
}

func SetPaginationHeaders(c *gin.Context, page Page) {
	c.Header("X-Total-Count", strconv.FormatInt(page.TotalResults, 10))
	c.Header("X-Page", strconv.Itoa(page.Page))
}
