package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Nareshb78/Assignment-Portal/core"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	limitParam    = "limit"

	defaultPageLimit = 10
	maxPageLimit     = 100
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// Pagination binds the page/limit query params with sane defaults.
type Pagination struct {
	Page  int
	Limit int
}

func (p *Pagination) Bind(ctx echo.Context) {
	p.Page = 1
	p.Limit = defaultPageLimit

	if page, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil && page > 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil && limit > 0 {
		if limit > maxPageLimit {
			limit = maxPageLimit
		}
		p.Limit = limit
	}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type (
	PageInfo struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Pages int `json:"pages"`
	}

	PagedResponse struct {
		Items      interface{} `json:"items"`
		Pagination PageInfo    `json:"pagination"`
	}
)

func newPagedResponse(items interface{}, total int, p Pagination) PagedResponse {
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PagedResponse{
		Items: items,
		Pagination: PageInfo{
			Total: total,
			Page:  p.Page,
			Limit: p.Limit,
			Pages: pages,
		},
	}
}
