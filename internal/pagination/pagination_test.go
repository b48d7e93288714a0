package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, PerPage: 10}},
		{"explicit", "page=3&per_page=5", Params{Page: 3, PerPage: 5}},
		{"garbage falls back", "page=abc&per_page=-2", Params{Page: 1, PerPage: 10}},
		{"zero falls back", "page=0&per_page=0", Params{Page: 1, PerPage: 10}},
		{"clamped", "per_page=5000", Params{Page: 1, PerPage: 100}},
		{"huge page capped", "page=4611686018427387904&per_page=100", Params{Page: MaxPage, PerPage: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseParams(q, 10, 100))
		})
	}
}

func TestNew_MiddlePage(t *testing.T) {
	base, _ := url.Parse("http://example.com/users?search=ann&per_page=5&page=2")
	page := New([]string{"f", "g", "h", "i", "j"}, 21, Params{Page: 2, PerPage: 5}, base)

	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 5, page.LastPage)
	assert.Equal(t, 5, page.PerPage)
	assert.Equal(t, int64(21), page.Total)
	assert.Equal(t, 6, *page.From)
	assert.Equal(t, 10, *page.To)
	assert.Equal(t, "http://example.com/users", page.Path)
	assert.Equal(t, "http://example.com/users?page=1&per_page=5&search=ann", page.FirstPageURL)
	assert.Equal(t, "http://example.com/users?page=5&per_page=5&search=ann", page.LastPageURL)
	require.NotNil(t, page.PrevPageURL)
	require.NotNil(t, page.NextPageURL)
	assert.Equal(t, "http://example.com/users?page=3&per_page=5&search=ann", *page.NextPageURL)

	// previous + 5 numbered + next
	require.Len(t, page.Links, 7)
	assert.Equal(t, "&laquo; Previous", page.Links[0].Label)
	assert.True(t, page.Links[2].Active)
	assert.Equal(t, "2", page.Links[2].Label)
	assert.Equal(t, "Next &raquo;", page.Links[6].Label)
}

func TestNew_EmptyResult(t *testing.T) {
	page := New[int](nil, 0, Params{Page: 1, PerPage: 10}, &url.URL{Path: "/users"})

	assert.Equal(t, []int{}, page.Data)
	assert.Equal(t, 1, page.LastPage)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)
	assert.Nil(t, page.PrevPageURL)
	assert.Nil(t, page.NextPageURL)
	assert.Nil(t, page.Links[0].URL)
}

func TestNew_PastLastPage(t *testing.T) {
	page := New([]int{}, 3, Params{Page: 4, PerPage: 10}, &url.URL{Path: "/users"})

	assert.Equal(t, 4, page.CurrentPage)
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.PrevPageURL)
	assert.Nil(t, page.NextPageURL)
}

func TestParseParams_ZeroDefault(t *testing.T) {
	p := ParseParams(url.Values{}, 0, 100)
	assert.Equal(t, 1, p.PerPage)

	page := New([]int{}, 5, Params{Page: 1, PerPage: 0}, &url.URL{Path: "/users"})
	assert.Equal(t, 1, page.PerPage)
	assert.Equal(t, 5, page.LastPage)
}

func TestNew_PastLastPageDropsData(t *testing.T) {
	page := New([]int{1, 2, 3}, 3, Params{Page: MaxPage, PerPage: 100}, &url.URL{Path: "/users"})

	assert.Empty(t, page.Data)
	assert.Nil(t, page.From)
	assert.Nil(t, page.To)
}

func TestWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Window(1, 3))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 0, 19, 20}, Window(2, 20))
	assert.Equal(t, []int{1, 2, 0, 7, 8, 9, 10, 11, 12, 13, 0, 19, 20}, Window(10, 20))
	assert.Equal(t, []int{1, 2, 0, 13, 14, 15, 16, 17, 18, 19, 20}, Window(19, 20))
}
