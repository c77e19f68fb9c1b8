package repository

import "gorm.io/gorm"

const maxPageSize = 200

// applyPagination 页码从 1 起；pageSize 不大于 0 时不分页，超出上限时截断
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
