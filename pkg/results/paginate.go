package results

const (
	PageSize        = 10
	MaxVisiblePages = 5
)

// TotalPages is ceil(count/size); an empty bucket has zero pages.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Page is one rendered slice of a bucket.
type Page[T any] struct {
	Items  []T `json:"items"`
	Number int `json:"page"`
	Total  int `json:"total_pages"`
	Count  int `json:"count"`
}

// Paginate returns page number of items. Numbers outside [1, total] are
// clamped; an empty bucket yields page 0 of 0 with no items.
func Paginate[T any](items []T, number, size int) Page[T] {
	total := TotalPages(len(items), size)
	if total == 0 {
		return Page[T]{Items: []T{}, Number: 0, Total: 0, Count: 0}
	}
	number = clamp(number, 1, total)
	start := (number - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{
		Items:  items[start:end],
		Number: number,
		Total:  total,
		Count:  len(items),
	}
}

// Controls describes a pagination widget: the visible page buttons plus the
// prev/next links.
type Controls struct {
	Visible bool  `json:"visible"`
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Pages   []int `json:"pages"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
	Prev    int   `json:"prev"`
	Next    int   `json:"next"`
}

// NewControls shows at most MaxVisiblePages buttons centered on current,
// shifted to stay inside [1, total]. A single page needs no controls.
func NewControls(current, total int) Controls {
	if total <= 1 {
		return Controls{Current: current, Total: total}
	}
	current = clamp(current, 1, total)

	start := current - MaxVisiblePages/2
	if start < 1 {
		start = 1
	}
	end := start + MaxVisiblePages - 1
	if end > total {
		end = total
	}
	if end-start+1 < MaxVisiblePages {
		start = end - MaxVisiblePages + 1
		if start < 1 {
			start = 1
		}
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	return Controls{
		Visible: true,
		Current: current,
		Total:   total,
		Pages:   pages,
		HasPrev: current > 1,
		HasNext: current < total,
		Prev:    current - 1,
		Next:    current + 1,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
