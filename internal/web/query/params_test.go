package query

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadict/datadict/internal/dict"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected dict.ListParams
	}{
		{
			name:     "empty when not present",
			url:      "/api/v1/fields",
			expected: dict.ListParams{},
		},
		{
			name:     "pagination",
			url:      "/api/v1/fields?page=2&page_size=50",
			expected: dict.ListParams{Page: 2, PageSize: 50},
		},
		{
			name:     "filters",
			url:      "/api/v1/fields?search=%20user%20&status=deprecated&root_filter=id",
			expected: dict.ListParams{Search: "user", Status: dict.StatusDeprecated, Root: "id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := ParseList(httptest.NewRequest("GET", tt.url, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestParseList_Invalid(t *testing.T) {
	for _, url := range []string{
		"/roots?page=abc",
		"/roots?page=0",
		"/roots?page_size=-1",
		"/roots?status=archived",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := ParseList(httptest.NewRequest("GET", url, nil))
			assert.Error(t, err)
		})
	}
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"user", "id", "order"}, ParseCSV("user, id,,order"))
	assert.Equal(t, []string{}, ParseCSV(""))
	assert.Equal(t, []string{}, ParseCSV(" , "))
}
