package router

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// PathID extracts a positive integer path parameter
func PathID(r *http.Request, name string) (int64, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return id, nil
}

// PathParam extracts a raw path parameter
func PathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
