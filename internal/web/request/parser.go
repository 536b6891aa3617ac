// Package request decodes API request bodies
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// DefaultMaxBodySize bounds request bodies; dictionary payloads are small
const DefaultMaxBodySize = 1 << 20

// Parser handles parsing of HTTP request bodies
type Parser struct {
	maxBodySize int64
}

// NewParser creates a new request parser with default settings
func NewParser() *Parser {
	return &Parser{maxBodySize: DefaultMaxBodySize}
}

// NewParserWithMaxSize creates a parser with a custom max body size
func NewParserWithMaxSize(maxBytes int64) *Parser {
	return &Parser{maxBodySize: maxBytes}
}

// Parse decodes a JSON body into target. A missing Content-Type is treated
// as JSON; any other media type is rejected.
func (p *Parser) Parse(w http.ResponseWriter, r *http.Request, target any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("unsupported content type: %s", contentType)
		}
	}
	return p.ParseJSON(w, r, target)
}

// ParseJSON parses a JSON request body, rejecting unknown fields and
// trailing data
func (p *Parser) ParseJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, p.maxBodySize)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case strings.Contains(err.Error(), "cannot unmarshal"):
			return fmt.Errorf("invalid JSON format: %w", err)
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if decoder.More() {
		return fmt.Errorf("request body contains multiple JSON objects")
	}
	return nil
}
