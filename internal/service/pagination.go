package service

// Page — одна страница элементов списка.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
	Total    int  `json:"total"`
}

// Paginate возвращает срез items для страницы page (нумерация с 1).
// Некорректные значения заменяются дефолтами.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	const defaultPageSize = 20

	total := len(items)

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page[T]{
		Items:    items[start:end],
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
		HasPrev:  page > 1 && start > 0,
		Total:    total,
	}
}
