// Package response renders the JSON envelope shared by every API endpoint:
//
//	{"success": true, "message": "...", "data": ...}
//	{"success": false, "message": "...", "error_code": "2000", "errors": [...]}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/datadict/datadict/internal/dict"
)

// Envelope is the body of every API response
type Envelope struct {
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	Data         any        `json:"data"`
	ErrorCode    string     `json:"error_code,omitempty"`
	Errors       []string   `json:"errors,omitempty"`
	Alternatives []string   `json:"alternatives,omitempty"`
	Pagination   *dict.Page `json:"pagination,omitempty"`
}

// JSON writes v with the given status code
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK renders a successful response
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, &Envelope{Success: true, Message: message, Data: data})
}

// Created renders a 201 response for a newly created entity
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, &Envelope{Success: true, Message: message, Data: data})
}

// List renders one page of a list with its pagination metadata
func List(w http.ResponseWriter, data any, page dict.Page) {
	JSON(w, http.StatusOK, &Envelope{Success: true, Message: "ok", Data: data, Pagination: &page})
}
