package handlers

import (
	"strconv"

	"reconview/pkg/results"

	"github.com/gin-gonic/gin"
)

// StateFromQuery reads a full page state from {category}_q and
// {category}_page query parameters.
func StateFromQuery(c *gin.Context) results.State {
	st := results.NewState()
	for _, cat := range results.SearchableCategories {
		st = withCursor(st, cat, c.Query(string(cat)+"_q"), c.Query(string(cat)+"_page"))
	}
	return st
}

// CategoryState reads the cursor of cat from q and page on top of the page
// state, so the other categories keep their search and page.
func CategoryState(c *gin.Context, cat results.Category) results.State {
	st := StateFromQuery(c)
	if !cat.Searchable() {
		return st
	}
	return withCursor(st, cat, c.Query("q"), c.Query("page"))
}

func withCursor(st results.State, cat results.Category, search, page string) results.State {
	next, err := results.Search(st, cat, search)
	if err != nil {
		return st
	}
	next, err = results.GoTo(next, cat, parsePage(page))
	if err != nil {
		return st
	}
	return next
}

func parsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// CategoryView picks the view of cat out of v.
func CategoryView(v results.Views, cat results.Category) interface{} {
	switch cat {
	case results.CategorySubdomains:
		return v.Subdomains
	case results.CategoryPorts:
		return v.Ports
	case results.CategoryURLs:
		return v.URLs
	case results.CategoryOther:
		return v.Other
	default:
		return v.Errors
	}
}
