package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datadict/datadict/internal/conflict"
	"github.com/datadict/datadict/internal/dict"
)

const rootColumns = "id, name, normalized_name, aliases, tags, usage_count, remark, status, created_at, updated_at"

// NameIndex scans the dictionary_names table
func (t *txStore) NameIndex(ctx context.Context) ([]conflict.Entry, error) {
	rows, err := t.query(ctx, "SELECT name, kind, owner_id, raw FROM dictionary_names ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []conflict.Entry
	for rows.Next() {
		var e conflict.Entry
		var kind string
		if err := rows.Scan(&e.Name, &kind, &e.OwnerID, &e.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		e.Kind = conflict.Kind(kind)
		entries = append(entries, e)
	}
	return entries, ConvertDBError(rows.Err())
}

// AddName inserts into dictionary_names, whose primary key is the canonical name
func (t *txStore) AddName(ctx context.Context, e conflict.Entry) error {
	_, err := t.exec(ctx,
		"INSERT INTO dictionary_names (name, kind, owner_id, raw) VALUES (?, ?, ?, ?)",
		e.Name, string(e.Kind), e.OwnerID, e.Raw)
	return err
}

// RemoveNames deletes the names of the given kinds owned by ownerID
func (t *txStore) RemoveNames(ctx context.Context, ownerID int64, kinds ...conflict.Kind) error {
	if len(kinds) == 0 {
		return nil
	}
	args := []interface{}{ownerID}
	for _, k := range kinds {
		args = append(args, string(k))
	}
	_, err := t.exec(ctx,
		"DELETE FROM dictionary_names WHERE owner_id = ? AND kind IN ("+placeholders(len(kinds))+")",
		args...)
	return err
}

func scanRoot(row rowScanner) (*dict.Root, error) {
	r := &dict.Root{}
	var aliases, tags, status string
	err := row.Scan(&r.ID, &r.Name, &r.Canonical, &aliases, &tags, &r.UsageCount,
		&r.Remark, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, ConvertDBError(err)
	}
	r.Status = dict.Status(status)
	if err := decodeList(aliases, &r.Aliases); err != nil {
		return nil, fmt.Errorf("root %d aliases: %w", r.ID, err)
	}
	if err := decodeList(tags, &r.Tags); err != nil {
		return nil, fmt.Errorf("root %d tags: %w", r.ID, err)
	}
	return r, nil
}

func decodeList(raw string, out *[]string) error {
	*out = []string{}
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetRoot loads a root by id
func (t *txStore) GetRoot(ctx context.Context, id int64) (*dict.Root, error) {
	return scanRoot(t.queryRow(ctx, "SELECT "+rootColumns+" FROM roots WHERE id = ?", id))
}

// RootsByCanonical loads the roots holding the given canonical names
func (t *txStore) RootsByCanonical(ctx context.Context, names []string) (map[string]*dict.Root, error) {
	found := make(map[string]*dict.Root, len(names))
	if len(names) == 0 {
		return found, nil
	}

	rows, err := t.query(ctx,
		"SELECT "+rootColumns+" FROM roots WHERE normalized_name IN ("+placeholders(len(names))+")",
		stringArgs(names)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRoot(rows)
		if err != nil {
			return nil, err
		}
		found[r.Canonical] = r
	}
	return found, ConvertDBError(rows.Err())
}

// ListRoots returns one page of roots and the number of matching roots
func (t *txStore) ListRoots(ctx context.Context, p dict.ListParams) ([]*dict.Root, int, error) {
	f := &filter{}
	f.search(p.Search, "name", "normalized_name", "remark")
	if p.Status != "" {
		f.add("status = ?", string(p.Status))
	}

	rows, total, err := t.list(ctx, rootColumns, "roots", f, p)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	roots := []*dict.Root{}
	for rows.Next() {
		r, err := scanRoot(rows)
		if err != nil {
			return nil, 0, err
		}
		roots = append(roots, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, ConvertDBError(err)
	}
	return roots, total, nil
}

// InsertRoot persists a new root and sets its ID
func (t *txStore) InsertRoot(ctx context.Context, r *dict.Root) error {
	aliases, tags, err := rootLists(r)
	if err != nil {
		return err
	}
	id, err := t.insert(ctx, `
INSERT INTO roots (name, normalized_name, aliases, tags, usage_count, remark, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Canonical, aliases, tags, r.UsageCount, r.Remark, string(r.Status), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// UpdateRoot writes the descriptive columns of the root. The usage counter
// is only changed through AdjustRootUsage.
func (t *txStore) UpdateRoot(ctx context.Context, r *dict.Root) error {
	aliases, tags, err := rootLists(r)
	if err != nil {
		return err
	}
	return t.execOne(ctx, `
UPDATE roots SET name = ?, normalized_name = ?, aliases = ?, tags = ?,
	remark = ?, status = ?, updated_at = ?
WHERE id = ?`,
		r.Name, r.Canonical, aliases, tags, r.Remark, string(r.Status), r.UpdatedAt, r.ID)
}

func rootLists(r *dict.Root) (string, string, error) {
	aliases, err := encodeList(r.Aliases)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode aliases: %w", err)
	}
	tags, err := encodeList(r.Tags)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return aliases, tags, nil
}

// DeleteRoot removes a root row
func (t *txStore) DeleteRoot(ctx context.Context, id int64) error {
	return t.execOne(ctx, "DELETE FROM roots WHERE id = ?", id)
}

// AdjustRootUsage adds delta to the usage counter, flooring it at zero.
// Unknown names are ignored.
func (t *txStore) AdjustRootUsage(ctx context.Context, canonical string, delta int) error {
	_, err := t.exec(ctx, `
UPDATE roots SET usage_count = CASE WHEN usage_count + ? < 0 THEN 0 ELSE usage_count + ? END
WHERE normalized_name = ?`,
		delta, delta, canonical)
	return err
}
