package transaction

import (
	"database/sql"
	"fmt"
	"strings"
)

// IsolationLevel is the isolation of every unit of work run by a Runner
type IsolationLevel int

const (
	ReadCommitted IsolationLevel = iota
	ReadUncommitted
	RepeatableRead
	Serializable
)

var isolationNames = map[IsolationLevel]string{
	ReadCommitted:   "read_committed",
	ReadUncommitted: "read_uncommitted",
	RepeatableRead:  "repeatable_read",
	Serializable:    "serializable",
}

func (l IsolationLevel) String() string {
	if name, ok := isolationNames[l]; ok {
		return name
	}
	return isolationNames[ReadCommitted]
}

// ParseIsolationLevel reads a config value such as "serializable" or
// "REPEATABLE READ". Empty means read committed.
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	if key == "" {
		return ReadCommitted, nil
	}
	for level, name := range isolationNames {
		if name == key {
			return level, nil
		}
	}
	return ReadCommitted, fmt.Errorf("unknown isolation level %q", s)
}

// TxOptions converts the level for database/sql. Read committed is the
// PostgreSQL default and maps to the driver default.
func (l IsolationLevel) TxOptions() *sql.TxOptions {
	switch l {
	case ReadUncommitted:
		return &sql.TxOptions{Isolation: sql.LevelReadUncommitted}
	case RepeatableRead:
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	case Serializable:
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	default:
		return &sql.TxOptions{}
	}
}
