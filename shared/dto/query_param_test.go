package dto_test

import (
	"net/http"
	"net/url"
	"testing"

	"facilitydesk/shared/constant"
	"facilitydesk/shared/dto"

	"github.com/stretchr/testify/assert"
)

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		defaultRequest bool
		expected       dto.QueryParams
	}{
		{
			name: "with all valid parameters",
			queryParams: map[string]string{
				"page":     "2",
				"limit":    "20",
				"sort_by":  "facility_name",
				"sort_dir": "asc",
				"q":        " sea ",
			},
			expected: dto.QueryParams{
				Page:    2,
				Limit:   20,
				SortBy:  "facility_name",
				SortDir: "ASC",
				Search:  "sea",
			},
		},
		{
			name:           "with default request enabled and no parameters",
			queryParams:    map[string]string{},
			defaultRequest: true,
			expected: dto.QueryParams{
				Page:  constant.DefaultValuePage,
				Limit: constant.DefaultValueLimit,
			},
		},
		{
			name: "with invalid parameters",
			queryParams: map[string]string{
				"page":     "-1",
				"limit":    "abc",
				"sort_dir": "sideways",
			},
			expected: dto.QueryParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			for k, v := range tt.queryParams {
				values.Set(k, v)
			}

			req := &http.Request{URL: &url.URL{RawQuery: values.Encode()}}

			var q dto.QueryParams
			q.FromRequest(req, tt.defaultRequest)

			assert.Equal(t, tt.expected, q)
		})
	}
}

func TestQueryParams_Window(t *testing.T) {
	tests := []struct {
		name      string
		params    dto.QueryParams
		total     int
		wantStart int
		wantEnd   int
	}{
		{name: "no limit", params: dto.QueryParams{}, total: 7, wantStart: 0, wantEnd: 7},
		{name: "first page", params: dto.QueryParams{Page: 1, Limit: 3}, total: 7, wantStart: 0, wantEnd: 3},
		{name: "last partial page", params: dto.QueryParams{Page: 3, Limit: 3}, total: 7, wantStart: 6, wantEnd: 7},
		{name: "past the end", params: dto.QueryParams{Page: 5, Limit: 3}, total: 7, wantStart: 7, wantEnd: 7},
		{name: "zero page", params: dto.QueryParams{Limit: 3}, total: 7, wantStart: 0, wantEnd: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.params.Window(tt.total)

			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestQueryParams_Descending(t *testing.T) {
	assert.True(t, dto.QueryParams{SortDir: dto.SortDirDesc}.Descending())
	assert.False(t, dto.QueryParams{SortDir: dto.SortDirAsc}.Descending())
	assert.False(t, dto.QueryParams{}.Descending())
}
