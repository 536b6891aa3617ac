package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/datadict/datadict/internal/dict"
)

const modelColumns = "id, model_name, normalized_name, description, remark, status, created_at, updated_at"

func scanModel(row rowScanner) (*dict.Model, error) {
	m := &dict.Model{}
	var status string
	err := row.Scan(&m.ID, &m.Name, &m.Canonical, &m.Description, &m.Remark,
		&status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	m.Status = dict.Status(status)
	return m, nil
}

// GetModel loads a model by id
func (t *txStore) GetModel(ctx context.Context, id int64) (*dict.Model, error) {
	return scanModel(t.queryRow(ctx, "SELECT "+modelColumns+" FROM models WHERE id = ?", id))
}

// GetModelByCanonical loads the model holding a canonical name
func (t *txStore) GetModelByCanonical(ctx context.Context, canonical string) (*dict.Model, error) {
	return scanModel(t.queryRow(ctx, "SELECT "+modelColumns+" FROM models WHERE normalized_name = ?", canonical))
}

// ModelNames returns the canonical name of every model
func (t *txStore) ModelNames(ctx context.Context) ([]string, error) {
	rows, err := t.query(ctx, "SELECT normalized_name FROM models")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan model name: %w", err)
		}
		names = append(names, name)
	}
	return names, ConvertDBError(rows.Err())
}

// ListModels returns one page of models and the number of matching models
func (t *txStore) ListModels(ctx context.Context, p dict.ListParams) ([]*dict.Model, int, error) {
	f := &filter{}
	f.search(p.Search, "model_name", "normalized_name", "description")
	if p.Status != "" {
		f.add("status = ?", string(p.Status))
	}

	rows, total, err := t.list(ctx, modelColumns, "models", f, p)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	models := []*dict.Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, 0, err
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, ConvertDBError(err)
	}
	return models, total, nil
}

// InsertModel persists a new model and sets its ID
func (t *txStore) InsertModel(ctx context.Context, m *dict.Model) error {
	id, err := t.insert(ctx, `
INSERT INTO models (model_name, normalized_name, description, remark, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Canonical, m.Description, m.Remark, string(m.Status), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// UpdateModel writes every mutable column of the model
func (t *txStore) UpdateModel(ctx context.Context, m *dict.Model) error {
	return t.execOne(ctx, `
UPDATE models SET model_name = ?, normalized_name = ?, description = ?, remark = ?,
	status = ?, updated_at = ?
WHERE id = ?`,
		m.Name, m.Canonical, m.Description, m.Remark, string(m.Status), m.UpdatedAt, m.ID)
}

// DeleteModel removes a model row
func (t *txStore) DeleteModel(ctx context.Context, id int64) error {
	return t.execOne(ctx, "DELETE FROM models WHERE id = ?", id)
}

// GetBinding loads the binding of fieldID to modelID
func (t *txStore) GetBinding(ctx context.Context, modelID, fieldID int64) (*dict.ModelField, error) {
	b := &dict.ModelField{}
	var def sql.NullString
	err := t.queryRow(ctx, `
SELECT id, model_id, field_id, pos, required, default_value, created_at
FROM model_fields WHERE model_id = ? AND field_id = ?`, modelID, fieldID).
		Scan(&b.ID, &b.ModelID, &b.FieldID, &b.Position, &b.Required, &def, &b.CreatedAt)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	b.Default = nullString(def)
	return b, nil
}

// ModelBindings joins the bindings of a model with their fields
func (t *txStore) ModelBindings(ctx context.Context, modelID int64) ([]dict.BoundField, error) {
	rows, err := t.query(ctx, `
SELECT mf.id, mf.model_id, mf.field_id, mf.pos, mf.required, mf.default_value, mf.created_at,
	f.field_name, f.meaning, f.data_type
FROM model_fields mf
JOIN fields f ON f.id = mf.field_id
WHERE mf.model_id = ?
ORDER BY mf.pos, mf.id`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bound := []dict.BoundField{}
	for rows.Next() {
		var b dict.BoundField
		var def sql.NullString
		err := rows.Scan(&b.ID, &b.ModelID, &b.FieldID, &b.Position, &b.Required, &def, &b.CreatedAt,
			&b.FieldName, &b.Meaning, &b.DataType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		b.Default = nullString(def)
		bound = append(bound, b)
	}
	return bound, ConvertDBError(rows.Err())
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// CountFieldBindings counts the models binding a field
func (t *txStore) CountFieldBindings(ctx context.Context, fieldID int64) (int, error) {
	return t.count(ctx, "SELECT COUNT(*) FROM model_fields WHERE field_id = ?", fieldID)
}

// ModelsBindingFields returns the distinct models binding any of the fields
func (t *txStore) ModelsBindingFields(ctx context.Context, fieldIDs []int64) ([]dict.EntityRef, error) {
	refs := []dict.EntityRef{}
	if len(fieldIDs) == 0 {
		return refs, nil
	}

	rows, err := t.query(ctx, `
SELECT DISTINCT m.id, m.model_name
FROM models m
JOIN model_fields mf ON mf.model_id = m.id
WHERE mf.field_id IN (`+placeholders(len(fieldIDs))+`)
ORDER BY m.id`, idArgs(fieldIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ref dict.EntityRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, ConvertDBError(rows.Err())
}

// InsertBinding persists a binding and sets its ID. A second binding of the
// same pair fails with dict.ErrDuplicate.
func (t *txStore) InsertBinding(ctx context.Context, b *dict.ModelField) error {
	id, err := t.insert(ctx, `
INSERT INTO model_fields (model_id, field_id, pos, required, default_value, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		b.ModelID, b.FieldID, b.Position, b.Required, b.Default, b.CreatedAt)
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// DeleteBinding removes the binding of fieldID to modelID
func (t *txStore) DeleteBinding(ctx context.Context, modelID, fieldID int64) error {
	return t.execOne(ctx, "DELETE FROM model_fields WHERE model_id = ? AND field_id = ?", modelID, fieldID)
}

// DeleteModelBindings removes every binding of a model
func (t *txStore) DeleteModelBindings(ctx context.Context, modelID int64) error {
	_, err := t.exec(ctx, "DELETE FROM model_fields WHERE model_id = ?", modelID)
	return err
}

// InsertLineage persists a lineage record and sets its ID
func (t *txStore) InsertLineage(ctx context.Context, l *dict.Lineage) error {
	id, err := t.insert(ctx,
		"INSERT INTO lineages (field_id, model_id, created_at) VALUES (?, ?, ?)",
		l.FieldID, l.ModelID, l.CreatedAt)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// DeleteLineage removes the lineage records linking fieldID to modelID
func (t *txStore) DeleteLineage(ctx context.Context, modelID, fieldID int64) error {
	_, err := t.exec(ctx, "DELETE FROM lineages WHERE model_id = ? AND field_id = ?", modelID, fieldID)
	return err
}

// DeleteModelLineage removes every lineage record of a model
func (t *txStore) DeleteModelLineage(ctx context.Context, modelID int64) error {
	_, err := t.exec(ctx, "DELETE FROM lineages WHERE model_id = ?", modelID)
	return err
}

// ListLineage returns the lineage records matching the filter
func (t *txStore) ListLineage(ctx context.Context, lf dict.LineageFilter) ([]*dict.Lineage, error) {
	f := &filter{}
	if lf.FieldID != 0 {
		f.add("field_id = ?", lf.FieldID)
	}
	if lf.ModelID != 0 {
		f.add("model_id = ?", lf.ModelID)
	}

	rows, err := t.query(ctx, "SELECT id, field_id, model_id, created_at FROM lineages"+f.where()+" ORDER BY id", f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lineage := []*dict.Lineage{}
	for rows.Next() {
		l := &dict.Lineage{}
		if err := rows.Scan(&l.ID, &l.FieldID, &l.ModelID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lineage: %w", err)
		}
		lineage = append(lineage, l)
	}
	return lineage, ConvertDBError(rows.Err())
}
