package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/datadict/datadict/internal/dict"
)

func TestConvertDBErrorWithPgErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Detail: "Key (normalized_name)=(amount) already exists."}
	err := ConvertDBError(pgErr)
	assert.ErrorIs(t, err, dict.ErrDuplicate)
	assert.Contains(t, err.Error(), "Key (normalized_name)")

	pgErr = &pgconn.PgError{Code: "23503", Detail: "Key (model_id)=(9) is not present in table models."}
	err = ConvertDBError(pgErr)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	pgErr = &pgconn.PgError{Code: "23514"}
	assert.ErrorIs(t, ConvertDBError(pgErr), ErrCheckViolation)

	pgErr = &pgconn.PgError{Code: "23502", ColumnName: "field_name"}
	err = ConvertDBError(pgErr)
	assert.ErrorIs(t, err, ErrNotNullViolation)
	assert.Contains(t, err.Error(), "field_name")

	pgErr = &pgconn.PgError{Code: "99999", Message: "Unknown error"}
	assert.Equal(t, error(pgErr), ConvertDBError(pgErr))
}

func TestConvertDBErrorWithPqErrors(t *testing.T) {
	err := ConvertDBError(&pq.Error{Code: "23505", Detail: "Key (name)=(user) already exists."})
	assert.ErrorIs(t, err, dict.ErrDuplicate)

	err = ConvertDBError(fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}))
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
}

func TestConvertDBErrorWithSQLiteErrors(t *testing.T) {
	err := ConvertDBError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	assert.ErrorIs(t, err, dict.ErrDuplicate)

	err = ConvertDBError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey})
	assert.ErrorIs(t, err, dict.ErrDuplicate)

	err = ConvertDBError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck})
	assert.ErrorIs(t, err, ErrCheckViolation)

	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	assert.Equal(t, error(busy), ConvertDBError(busy))
}

func TestConvertDBErrorGeneric(t *testing.T) {
	assert.NoError(t, ConvertDBError(nil))
	assert.ErrorIs(t, ConvertDBError(sql.ErrNoRows), dict.ErrNotFound)

	generic := errors.New("generic error")
	assert.Equal(t, generic, ConvertDBError(generic))
}
