package records

// Page is one window of a larger result set.
type Page[T any] struct {
	Items      []T  `json:"items"`
	NextPage   *int `json:"next_page"`
	TotalPages int  `json:"total_pages"`
	Total      int  `json:"total"`
}

// NewPage assembles a page descriptor from items already sliced to one page,
// the zero-based page, the page size, and the total matching count. It is a
// pure function: no I/O, identical inputs yield identical outputs. pageSize
// must be positive; that is the caller's responsibility.
func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	if items == nil {
		items = []T{}
	}

	var next *int
	if (page+1)*pageSize < total {
		n := page + 1
		next = &n
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return Page[T]{
		Items:      items,
		NextPage:   next,
		TotalPages: totalPages,
		Total:      total,
	}
}
