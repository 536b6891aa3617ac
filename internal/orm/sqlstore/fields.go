package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/datadict/datadict/internal/dict"
)

const fieldColumns = "id, field_name, normalized_name, data_type, meaning, remark, status, created_at, updated_at"

func scanField(row rowScanner) (*dict.Field, error) {
	f := &dict.Field{Roots: []string{}}
	var status string
	err := row.Scan(&f.ID, &f.Name, &f.Canonical, &f.DataType, &f.Meaning,
		&f.Remark, &status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	f.Status = dict.Status(status)
	return f, nil
}

// collectFields drains rows and then attaches each field's root list.
// The rows are closed before the root lists are queried.
func (t *txStore) collectFields(ctx context.Context, rows *sql.Rows) ([]*dict.Field, error) {
	fields := []*dict.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, ConvertDBError(err)
	}
	rows.Close()

	if err := t.attachRoots(ctx, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (t *txStore) attachRoots(ctx context.Context, fields []*dict.Field) error {
	if len(fields) == 0 {
		return nil
	}
	byID := make(map[int64]*dict.Field, len(fields))
	ids := make([]int64, len(fields))
	for i, f := range fields {
		byID[f.ID] = f
		ids[i] = f.ID
	}

	rows, err := t.query(ctx,
		"SELECT field_id, root_name FROM field_roots WHERE field_id IN ("+placeholders(len(ids))+") ORDER BY field_id, pos",
		idArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var root string
		if err := rows.Scan(&id, &root); err != nil {
			return fmt.Errorf("failed to scan field root: %w", err)
		}
		if f, ok := byID[id]; ok {
			f.Roots = append(f.Roots, root)
		}
	}
	return ConvertDBError(rows.Err())
}

// GetField loads a field and its root list
func (t *txStore) GetField(ctx context.Context, id int64) (*dict.Field, error) {
	f, err := scanField(t.queryRow(ctx, "SELECT "+fieldColumns+" FROM fields WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := t.attachRoots(ctx, []*dict.Field{f}); err != nil {
		return nil, err
	}
	return f, nil
}

// ListFields returns one page of fields and the number of matching fields
func (t *txStore) ListFields(ctx context.Context, p dict.ListParams) ([]*dict.Field, int, error) {
	f := &filter{}
	f.search(p.Search, "field_name", "normalized_name", "meaning")
	if p.Status != "" {
		f.add("status = ?", string(p.Status))
	}
	if p.Root != "" {
		f.add("id IN (SELECT field_id FROM field_roots WHERE root_name = ?)", p.Root)
	}

	rows, total, err := t.list(ctx, fieldColumns, "fields", f, p)
	if err != nil {
		return nil, 0, err
	}
	fields, err := t.collectFields(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return fields, total, nil
}

// FieldsWithRoots returns the fields whose root list holds every given name
func (t *txStore) FieldsWithRoots(ctx context.Context, roots []string) ([]*dict.Field, error) {
	if len(roots) == 0 {
		return []*dict.Field{}, nil
	}
	args := append(stringArgs(roots), len(roots))
	rows, err := t.query(ctx, `
SELECT `+fieldColumns+` FROM fields
WHERE id IN (
	SELECT field_id FROM field_roots
	WHERE root_name IN (`+placeholders(len(roots))+`)
	GROUP BY field_id
	HAVING COUNT(DISTINCT root_name) = ?
)
ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	return t.collectFields(ctx, rows)
}

// InsertField persists a new field with its root list and sets its ID
func (t *txStore) InsertField(ctx context.Context, f *dict.Field) error {
	id, err := t.insert(ctx, `
INSERT INTO fields (field_name, normalized_name, data_type, meaning, remark, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Canonical, f.DataType, f.Meaning, f.Remark, string(f.Status), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return err
	}
	f.ID = id
	return t.writeRoots(ctx, f)
}

// UpdateField writes the field columns and replaces its root list
func (t *txStore) UpdateField(ctx context.Context, f *dict.Field) error {
	err := t.execOne(ctx, `
UPDATE fields SET field_name = ?, normalized_name = ?, data_type = ?, meaning = ?,
	remark = ?, status = ?, updated_at = ?
WHERE id = ?`,
		f.Name, f.Canonical, f.DataType, f.Meaning, f.Remark, string(f.Status), f.UpdatedAt, f.ID)
	if err != nil {
		return err
	}
	if _, err := t.exec(ctx, "DELETE FROM field_roots WHERE field_id = ?", f.ID); err != nil {
		return err
	}
	return t.writeRoots(ctx, f)
}

func (t *txStore) writeRoots(ctx context.Context, f *dict.Field) error {
	for pos, root := range f.Roots {
		_, err := t.exec(ctx,
			"INSERT INTO field_roots (field_id, pos, root_name) VALUES (?, ?, ?)",
			f.ID, pos, root)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteField removes a field and its root list
func (t *txStore) DeleteField(ctx context.Context, id int64) error {
	if _, err := t.exec(ctx, "DELETE FROM field_roots WHERE field_id = ?", id); err != nil {
		return err
	}
	return t.execOne(ctx, "DELETE FROM fields WHERE id = ?", id)
}
