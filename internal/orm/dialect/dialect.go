// Package dialect hides the SQL differences between the supported drivers
package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect describes one SQL flavor
type Dialect struct {
	Name          string
	Driver        string
	dollarParams  bool
	idColumn      string
	timestampType string
}

var (
	// SQLite is used with github.com/mattn/go-sqlite3
	SQLite = Dialect{
		Name:          "sqlite",
		Driver:        "sqlite3",
		idColumn:      "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestampType: "TIMESTAMP",
	}

	// Postgres is used with pgx (stdlib) or lib/pq
	Postgres = Dialect{
		Name:          "postgres",
		Driver:        "pgx",
		dollarParams:  true,
		idColumn:      "BIGSERIAL PRIMARY KEY",
		timestampType: "TIMESTAMPTZ",
	}
)

// ForDriver returns the dialect for a database/sql driver name
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx":
		return Postgres, nil
	case "postgres":
		d := Postgres
		d.Driver = "postgres"
		return d, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// IsPostgres reports whether the dialect speaks PostgreSQL
func (d Dialect) IsPostgres() bool {
	return d.dollarParams
}

// Rebind rewrites ? placeholders into the dialect's placeholder style.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.dollarParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Expand fills the {{id}} and {{ts}} column templates used by migrations
func (d Dialect) Expand(ddl string) string {
	return strings.NewReplacer(
		"{{id}}", d.idColumn,
		"{{ts}}", d.timestampType,
	).Replace(ddl)
}
