package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/types"
)

const maxPageSize = 100

// pageParams reads ?page= and ?limit=, falling back to defaultSize
func pageParams(c *gin.Context, defaultSize int) (page, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// newPage wraps results with links to the neighbouring pages
func newPage[T any](c *gin.Context, results []T, total int64, page, limit int) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	p := types.Page[T]{Count: total, Results: results}
	if int64(page*limit) < total {
		p.Next = pageLink(c, page+1)
	}
	if page > 1 {
		p.Previous = pageLink(c, page-1)
	}
	return p
}

func pageLink(c *gin.Context, page int) *string {
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
