package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/freelancedesk/backend/internal/domain/shared"
)

// applyFilter applies pagination and ordering from the filter. Sort columns
// are whitelisted per repository; anything else falls back to created_at so
// user input never reaches the ORDER BY clause verbatim.
func applyFilter(query *gorm.DB, filter shared.Filter, sortColumns map[string]bool) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := filter.OrderBy
	if orderBy == "" || !sortColumns[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		orderDir = "ASC"
	}
	return query.Order(orderBy + " " + orderDir)
}
