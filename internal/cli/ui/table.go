package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// TableOptions configures a Table
type TableOptions struct {
	NoColor bool
	// RightAlign lists the column indexes rendered flush right, e.g. ids and counts
	RightAlign []int
	// Empty is printed instead of the table when there are no rows
	Empty string
}

// Table renders dictionary listings as aligned columns. A column headed
// STATUS is colored by value: active and applied in green, deprecated and
// pending in yellow.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	opts    TableOptions
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{writer: w, headers: headers}
	if opts != nil {
		t.opts = *opts
	}
	return t
}

// AddRow appends a row; missing cells render empty and extra cells are dropped
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}
	if len(t.rows) == 0 && t.opts.Empty != "" {
		fmt.Fprintln(t.writer, t.opts.Empty)
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	right := make(map[int]bool, len(t.opts.RightAlign))
	for _, i := range t.opts.RightAlign {
		right[i] = true
	}
	status := -1
	for i, h := range t.headers {
		if h == "STATUS" {
			status = i
		}
	}

	header := t.color(color.Bold, color.FgCyan)
	rule := t.color(color.FgHiBlack)

	t.line(widths, right, t.headers, func(int, string) *color.Color { return header })

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("─", w)
	}
	t.line(widths, nil, rules, func(int, string) *color.Color { return rule })

	for _, row := range t.rows {
		t.line(widths, right, row, func(col int, cell string) *color.Color {
			if col != status {
				return nil
			}
			return t.statusColor(cell)
		})
	}
}

// line pads every cell before coloring it so escape codes do not skew widths
func (t *Table) line(widths []int, right map[int]bool, cells []string, paint func(int, string) *color.Color) {
	var b strings.Builder
	last := len(cells) - 1
	for i, cell := range cells {
		padded := pad(cell, widths[i], right[i])
		if i == last {
			padded = strings.TrimRight(padded, " ")
		}
		if c := paint(i, cell); c != nil {
			padded = c.Sprint(padded)
		}
		b.WriteString(padded)
		if i < last {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(t.writer, strings.TrimRight(b.String(), " "))
}

func (t *Table) statusColor(value string) *color.Color {
	switch value {
	case "active", "applied":
		return t.color(color.FgGreen)
	case "deprecated", "pending":
		return t.color(color.FgYellow)
	}
	return nil
}

func (t *Table) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.opts.NoColor {
		c.DisableColor()
	}
	return c
}

func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// KeyValueTable renders "key: value" lines with the values aligned
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		width = max(width, utf8.RuneCountInString(k)+1)
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, k := range t.keys {
		cyan.Fprint(t.writer, pad(k+":", width, false))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}
