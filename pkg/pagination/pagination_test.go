package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, 20, 0},
		{"?page=3&per_page=10", 3, 10, 20},
		{"?page=0&per_page=-5", 1, 20, 0},
		{"?page=abc&per_page=500", 1, 20, 0},
		{"?per_page=100", 1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 45, Params{Page: 2, PerPage: 20, Offset: 20})

	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)
}

func TestNewResult_EmptyPageHasEmptySlice(t *testing.T) {
	r := NewResult[int](nil, 0, DefaultParams())

	assert.NotNil(t, r.Data)
	assert.Zero(t, r.TotalPages)
	assert.False(t, r.HasNext)
	assert.False(t, r.HasPrev)
}
