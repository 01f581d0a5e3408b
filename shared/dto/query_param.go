package dto

import (
	"net/http"
	"strconv"
	"strings"

	"facilitydesk/shared/constant"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

// QueryParams are the list options of a collection endpoint. A zero Limit
// means the whole collection.
type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
	Search  string `json:"q"        validate:"omitempty"`
}

// FromRequest populates QueryParams from the HTTP request. Invalid values are
// ignored. With defaultRequest set, a missing page or limit gets its default.
func (q *QueryParams) FromRequest(r *http.Request, defaultRequest bool) {
	queryParams := r.URL.Query()

	if page := queryParams.Get(constant.RequestParamPage); page != constant.Empty {
		if pageInt, err := strconv.Atoi(page); err == nil && pageInt > 0 {
			q.Page = pageInt
		}
	}

	if limit := queryParams.Get(constant.RequestParamLimit); limit != constant.Empty {
		if limitInt, err := strconv.Atoi(limit); err == nil && limitInt > 0 {
			q.Limit = limitInt
		}
	}

	if sortBy := queryParams.Get(constant.RequestParamSortBy); sortBy != constant.Empty {
		q.SortBy = sortBy
	}

	if sortDir := strings.ToUpper(queryParams.Get(constant.RequestParamSortDir)); sortDir == SortDirAsc || sortDir == SortDirDesc {
		q.SortDir = sortDir
	}

	q.Search = strings.TrimSpace(queryParams.Get(constant.RequestParamSearch))

	if defaultRequest {
		if q.Page == 0 {
			q.Page = constant.DefaultValuePage
		}

		if q.Limit == 0 {
			q.Limit = constant.DefaultValueLimit
		}
	}
}

// Descending reports whether the sort direction is DESC.
func (q QueryParams) Descending() bool {
	return q.SortDir == SortDirDesc
}

// Window returns the bounds of the requested page within total items.
func (q QueryParams) Window(total int) (start, end int) {
	if q.Limit <= 0 {
		return 0, total
	}

	page := max(q.Page, 1)

	start = min((page-1)*q.Limit, total)
	end = min(start+q.Limit, total)

	return start, end
}
