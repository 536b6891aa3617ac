package profiling

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	h := Handler(Config{})

	tests := []struct {
		path string
		code int
	}{
		{Path + "/", http.StatusOK},
		{Path + "/cmdline", http.StatusOK},
		{Path + "/goroutine?debug=1", http.StatusOK},
		{Path + "/heap", http.StatusOK},
		{Path + "/nosuchprofile", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandler_Index(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path+"/", nil))
	assert.Contains(t, rec.Body.String(), "goroutine")
}
