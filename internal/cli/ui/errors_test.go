package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datadict/datadict/internal/dict"
)

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Context:      "migration failed",
		Problem:      "table exists",
		Details:      []string{"version 1"},
		Suggestions:  []string{"a", "b"},
		HelpCommands: []string{"datadict migrate status"},
		NoColor:      true,
	})

	assert.Contains(t, out, "❌ MIGRATION FAILED: table exists")
	assert.Contains(t, out, "   version 1")
	assert.Contains(t, out, "Did you mean: a, b?")
	assert.Contains(t, out, "→ datadict migrate status")

	assert.Contains(t, Warning("careful", nil, true), "⚠️ careful")
	assert.Contains(t, Info("note", true), "ℹ️ note")
	assert.Contains(t, ConfigError("bad port", true), "CONFIGURATION ERROR: bad port")
	assert.Contains(t, MigrationError("boom", nil, true), "datadict migrate status")
}

func TestDictionaryError(t *testing.T) {
	err := &dict.Error{
		Kind:         dict.RootNameConflict,
		Message:      "root name conflict: amount (ID: 3)",
		Alternatives: []string{"amount_1"},
	}
	out := DictionaryError(err, true)
	assert.Contains(t, out, "ROOT NAME CONFLICT: root name conflict: amount (ID: 3)")
	assert.Contains(t, out, "Did you mean: amount_1?")
	assert.Contains(t, out, "datadict check root|field NAME")

	out = DictionaryError(&dict.Error{Kind: dict.MissingRoots, Message: "roots do not exist: ghost"}, true)
	assert.Contains(t, out, "MISSING ROOTS")
	assert.Contains(t, out, "datadict root add NAME")

	out = DictionaryError(errors.New("disk full"), true)
	assert.Contains(t, out, "INTERNAL ERROR: disk full")
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "root created", true)
	assert.Equal(t, "✓ root created\n", buf.String())

	buf.Reset()
	WriteError(&buf, ErrorOptions{Problem: "nope", NoColor: true})
	assert.Equal(t, "❌ nope\n", buf.String())
}
