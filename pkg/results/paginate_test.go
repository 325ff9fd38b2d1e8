package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{1, 1},
		{9, 1},
		{10, 1},
		{11, 2},
		{20, 2},
		{95, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.count, PageSize), "count=%d", tt.count)
	}
}

func TestPaginateSliceSizes(t *testing.T) {
	for _, n := range []int{0, 1, 7, 10, 11, 25, 40} {
		items := seq(n)
		total := TotalPages(n, PageSize)
		for p := 1; p <= total; p++ {
			page := Paginate(items, p, PageSize)
			want := n - (p-1)*PageSize
			if want > PageSize {
				want = PageSize
			}
			assert.Len(t, page.Items, want, "n=%d page=%d", n, p)
			assert.Equal(t, (p-1)*PageSize, page.Items[0])
			assert.Equal(t, p, page.Number)
			assert.Equal(t, total, page.Total)
			assert.Equal(t, n, page.Count)
		}
	}
}

func TestPaginateEmptyHasNoPages(t *testing.T) {
	page := Paginate([]string{}, 1, PageSize)

	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.Number)
	assert.False(t, NewControls(page.Number, page.Total).Visible)
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	items := seq(25)

	assert.Equal(t, 1, Paginate(items, 0, PageSize).Number)
	assert.Equal(t, 1, Paginate(items, -4, PageSize).Number)

	last := Paginate(items, 99, PageSize)
	assert.Equal(t, 3, last.Number)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, last.Items)
}

func TestNewControls(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		pages   []int
		hasPrev bool
		hasNext bool
	}{
		{name: "first of many", current: 1, total: 12, pages: []int{1, 2, 3, 4, 5}, hasPrev: false, hasNext: true},
		{name: "centered", current: 6, total: 12, pages: []int{4, 5, 6, 7, 8}, hasPrev: true, hasNext: true},
		{name: "near end shifts left", current: 11, total: 12, pages: []int{8, 9, 10, 11, 12}, hasPrev: true, hasNext: true},
		{name: "last", current: 12, total: 12, pages: []int{8, 9, 10, 11, 12}, hasPrev: true, hasNext: false},
		{name: "fewer pages than buttons", current: 2, total: 3, pages: []int{1, 2, 3}, hasPrev: true, hasNext: true},
		{name: "second page", current: 2, total: 7, pages: []int{1, 2, 3, 4, 5}, hasPrev: true, hasNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewControls(tt.current, tt.total)
			assert.True(t, c.Visible)
			assert.Equal(t, tt.pages, c.Pages)
			assert.Equal(t, tt.hasPrev, c.HasPrev)
			assert.Equal(t, tt.hasNext, c.HasNext)
			assert.LessOrEqual(t, len(c.Pages), MaxVisiblePages)
		})
	}
}

func TestNewControlsHiddenForSinglePage(t *testing.T) {
	c := NewControls(1, 1)

	assert.False(t, c.Visible)
	assert.Empty(t, c.Pages)
}
