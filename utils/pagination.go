package utils

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is serialized into the X-Pagination response header.
type Pagination struct {
	Total       int `json:"total"`
	Page        int `json:"page"`
	PerPageSize int `json:"perPageSize"`
	PageCount   int `json:"pageCount"`
}

// NormalizePage clamps page to >= 1 and pageSize to 1..MaxPageSize.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func NewPagination(total, page, pageSize int) Pagination {
	page, pageSize = NormalizePage(page, pageSize)
	return Pagination{
		Total:       total,
		Page:        page,
		PerPageSize: pageSize,
		PageCount:   (total + pageSize - 1) / pageSize,
	}
}
