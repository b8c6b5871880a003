package repository

import "strings"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageBounds normalises 1-based paging input into LIMIT/OFFSET values.
func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// orderClause whitelists the sort column and direction.
func orderClause(sortBy, sortOrder string, allowed map[string]bool, fallback string) string {
	if !allowed[sortBy] {
		sortBy = fallback
	}
	dir := strings.ToUpper(sortOrder)
	if dir != "ASC" && dir != "DESC" {
		dir = "DESC"
	}
	return sortBy + " " + dir
}
