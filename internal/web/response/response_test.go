package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadict/datadict/internal/dict"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind   dict.Kind
		status int
	}{
		{dict.RootNotFound, http.StatusNotFound},
		{dict.ModelNotFound, http.StatusNotFound},
		{dict.RootNameConflict, http.StatusConflict},
		{dict.RootInUse, http.StatusConflict},
		{dict.FieldAlreadyBound, http.StatusConflict},
		{dict.MissingRoots, http.StatusBadRequest},
		{dict.FieldNameInvalid, http.StatusBadRequest},
		{dict.FieldNotBound, http.StatusBadRequest},
		{dict.ValidationError, http.StatusBadRequest},
		{dict.InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, StatusFor(tt.kind))
		})
	}
}

func TestOKAndList(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "root created", map[string]string{"name": "user"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "root created", body["message"])
	assert.NotContains(t, body, "error_code")
	assert.NotContains(t, body, "pagination")

	rec = httptest.NewRecorder()
	List(rec, []int{1, 2}, dict.NewPage(dict.ListParams{Page: 1, PageSize: 2}, 3))
	body = decode(t, rec)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["total_pages"])
	assert.Equal(t, true, pagination["has_next"])
}

func TestError_DictionaryError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, &dict.Error{
		Kind:         dict.RootNameConflict,
		Message:      "root name conflict: amount",
		Details:      []string{"suggested: amount_1"},
		ConflictID:   7,
		Alternatives: []string{"amount_1"},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "2000", body["error_code"])
	assert.Equal(t, []any{"root name conflict: amount", "suggested: amount_1"}, body["errors"])
	assert.Equal(t, []any{"amount_1"}, body["alternatives"])
	assert.Equal(t, map[string]any{"conflict_id": float64(7)}, body["data"])
}

func TestError_Impact(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, &dict.Error{
		Kind:    dict.RootInUse,
		Message: "root in use",
		Impact:  &dict.Impact{Fields: []dict.EntityRef{{ID: 1, Name: "user_id"}}, Models: []dict.EntityRef{}},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Len(t, data["fields"], 1)
}

func TestError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "1005", body["error_code"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	Error(rec, &dict.Error{Kind: dict.InternalError, Message: "internal error", Details: []string{"disk full"}})
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestError_Timeout(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, &dict.Error{Kind: dict.InternalError, Message: "internal error", Err: context.DeadlineExceeded})

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, CodeTimeout, decode(t, rec)["error_code"])
}

func TestRenderHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderUnauthorized(rec, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "1003", decode(t, rec)["error_code"])
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = httptest.NewRecorder()
	RenderNotFound(rec, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "resource not found: /nope", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	RenderBadRequest(rec, "invalid id")
	assert.Equal(t, "1001", decode(t, rec)["error_code"])
}
