// Package query parses list query parameters
package query

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/datadict/datadict/internal/dict"
)

// ParseList parses the pagination and filter parameters of a list request.
// Example: ?page=2&page_size=50&search=user&status=active&root_filter=id
// Absent values are left zero so the service applies its defaults.
func ParseList(r *http.Request) (dict.ListParams, error) {
	q := r.URL.Query()

	var params dict.ListParams
	var err error
	if params.Page, err = parseInt(q.Get("page"), "page"); err != nil {
		return params, err
	}
	if params.PageSize, err = parseInt(q.Get("page_size"), "page_size"); err != nil {
		return params, err
	}

	params.Search = strings.TrimSpace(q.Get("search"))
	params.Root = strings.TrimSpace(q.Get("root_filter"))

	if status := strings.TrimSpace(q.Get("status")); status != "" {
		params.Status = dict.Status(status)
		if !params.Status.Valid() {
			return params, fmt.Errorf("invalid status: %q", status)
		}
	}
	return params, nil
}

// ParseCSV splits a comma separated value into trimmed, non-empty parts.
// Example: "user, id,,order" returns ["user", "id", "order"]
// Returns an empty slice if the value is empty.
func ParseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseInt(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got: %q", name, value)
	}
	return n, nil
}
