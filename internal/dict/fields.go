package dict

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/conflict"
	"github.com/datadict/datadict/internal/naming"
)

// CreateField registers a field built from an ordered list of roots.
//
// Checks run in order: the root list must be non-empty, every root must
// exist and be active, the name must equal the underscore join of the roots,
// and the canonical name must be valid and unused. On success the usage
// counter of every distinct root goes up by one in the same unit of work.
func (s *Service) CreateField(ctx context.Context, in FieldInput) (*Field, error) {
	var created *Field
	err := s.run(ctx, "field.create", func(tx Tx) error {
		if len(in.Roots) == 0 {
			return newError(RootCombinationRequired, "field must be built from a root combination: %s", in.Name)
		}
		if err := s.requireLiveRoots(ctx, tx, in.Roots); err != nil {
			return err
		}
		if err := requireDerivedName(in.Name, in.Roots); err != nil {
			return err
		}

		canonical, err := s.validFieldName(in.Name)
		if err != nil {
			return err
		}

		idx, err := s.index(ctx, tx)
		if err != nil {
			return err
		}
		if res := s.checker.CheckField(in.Name, idx); res.HasConflict() {
			return fieldConflict(res)
		}

		now := s.timestamp()
		field := &Field{
			Name:      in.Name,
			Canonical: canonical,
			Roots:     append([]string(nil), in.Roots...),
			DataType:  in.DataType,
			Meaning:   in.Meaning,
			Remark:    in.Remark,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertField(ctx, field); err != nil {
			return duplicateAs(err, FieldNameConflict, canonical)
		}
		if err := tx.AddName(ctx, fieldEntry(field)); err != nil {
			return duplicateAs(err, FieldNameConflict, canonical)
		}
		if err := adjustUsage(ctx, tx, field.Roots, 1); err != nil {
			return err
		}

		created = field
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("field created",
		zap.Int64("id", created.ID),
		zap.String("name", created.Canonical),
		zap.Strings("roots", created.Roots),
	)
	return created, nil
}

// GetField returns a field by id
func (s *Service) GetField(ctx context.Context, id int64) (*Field, error) {
	var field *Field
	err := s.run(ctx, "field.get", func(tx Tx) error {
		var err error
		field, err = getField(ctx, tx, id)
		return err
	})
	return field, err
}

// ListFields returns one page of fields matching params
func (s *Service) ListFields(ctx context.Context, params ListParams) ([]*Field, Page, error) {
	params = params.Normalized()
	if params.Status != "" && !params.Status.Valid() {
		return nil, Page{}, invalidStatus(params.Status)
	}

	var (
		fields []*Field
		total  int
	)
	err := s.run(ctx, "field.list", func(tx Tx) error {
		var err error
		fields, total, err = tx.ListFields(ctx, params)
		return err
	})
	if err != nil {
		return nil, Page{}, err
	}
	return fields, NewPage(params, total), nil
}

// UpdateField changes a field. The effective name must stay equal to the
// join of the effective root list; changing the roots without a name derives
// the name. A root list change moves usage from the old roots to the new ones
// in the same unit of work.
func (s *Service) UpdateField(ctx context.Context, id int64, upd FieldUpdate) (*Field, error) {
	var updated *Field
	err := s.run(ctx, "field.update", func(tx Tx) error {
		field, err := getField(ctx, tx, id)
		if err != nil {
			return err
		}

		oldRoots := field.Roots
		newRoots := field.Roots
		rootsChanged := false
		if upd.Roots != nil {
			if len(upd.Roots) == 0 {
				return newError(RootCombinationRequired, "field must be built from a root combination: %s", field.Name)
			}
			newRoots = upd.Roots
			rootsChanged = !sameList(upd.Roots, field.Roots)
		}

		newName := field.Name
		switch {
		case upd.Name != nil:
			newName = *upd.Name
		case rootsChanged:
			newName = naming.Join(newRoots)
		}

		if rootsChanged {
			if err := s.requireLiveRoots(ctx, tx, newRoots); err != nil {
				return err
			}
		}
		if err := requireDerivedName(newName, newRoots); err != nil {
			return err
		}

		if newName != field.Name {
			canonical, err := s.validFieldName(newName)
			if err != nil {
				return err
			}
			idx, err := s.index(ctx, tx)
			if err != nil {
				return err
			}
			if res := s.checker.CheckField(newName, idx.Without(field.ID, conflict.KindField)); res.HasConflict() {
				return fieldConflict(res)
			}

			if err := tx.RemoveNames(ctx, field.ID, conflict.KindField); err != nil {
				return err
			}
			field.Name = newName
			field.Canonical = canonical
			if err := tx.AddName(ctx, fieldEntry(field)); err != nil {
				return duplicateAs(err, FieldNameConflict, canonical)
			}
		}

		field.Roots = append([]string(nil), newRoots...)
		if upd.DataType != nil {
			field.DataType = *upd.DataType
		}
		if upd.Meaning != nil {
			field.Meaning = *upd.Meaning
		}
		if upd.Remark != nil {
			field.Remark = *upd.Remark
		}
		field.UpdatedAt = s.timestamp()

		if err := tx.UpdateField(ctx, field); err != nil {
			return duplicateAs(err, FieldNameConflict, field.Canonical)
		}

		if rootsChanged {
			if err := adjustUsage(ctx, tx, oldRoots, -1); err != nil {
				return err
			}
			if err := adjustUsage(ctx, tx, newRoots, 1); err != nil {
				return err
			}
		}

		updated = field
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("field updated", zap.Int64("id", updated.ID), zap.String("name", updated.Canonical))
	return updated, nil
}

// DeleteField removes a field that no model binds and releases its roots
func (s *Service) DeleteField(ctx context.Context, id int64) error {
	err := s.run(ctx, "field.delete", func(tx Tx) error {
		field, err := getField(ctx, tx, id)
		if err != nil {
			return err
		}

		bindings, err := tx.CountFieldBindings(ctx, field.ID)
		if err != nil {
			return err
		}
		if bindings > 0 {
			e := newError(FieldInUse, "field is used by models and cannot be deleted: %s", field.Name)
			e.Details = []string{fmt.Sprintf("affected models: %d", bindings)}
			e.ConflictID = field.ID
			return e
		}

		if err := tx.RemoveNames(ctx, field.ID, conflict.KindField); err != nil {
			return err
		}
		if err := tx.DeleteField(ctx, field.ID); err != nil {
			return err
		}
		return adjustUsage(ctx, tx, field.Roots, -1)
	})
	if err != nil {
		return err
	}

	s.logger.Info("field deleted", zap.Int64("id", id))
	return nil
}

// SetFieldStatus moves a field between active and deprecated
func (s *Service) SetFieldStatus(ctx context.Context, id int64, status Status) (*Field, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}

	var field *Field
	err := s.run(ctx, "field.status", func(tx Tx) error {
		var err error
		field, err = getField(ctx, tx, id)
		if err != nil {
			return err
		}
		field.Status = status
		field.UpdatedAt = s.timestamp()
		return tx.UpdateField(ctx, field)
	})
	if err != nil {
		return nil, err
	}
	return field, nil
}

// CheckFieldName reports whether a field name is available, with
// alternatives when it is not
func (s *Service) CheckFieldName(ctx context.Context, name string) (*FieldNameCheck, error) {
	check := &FieldNameCheck{Name: name, Canonical: naming.Normalize(name), Alternatives: []string{}}
	if check.Canonical == "" {
		check.Message = "field name must not be empty"
		return check, nil
	}

	err := s.run(ctx, "field.check", func(tx Tx) error {
		idx, err := s.index(ctx, tx)
		if err != nil {
			return err
		}

		res := s.checker.CheckField(name, idx)
		if c, ok := res.Syntax(); ok {
			check.Message = c.Message
			return nil
		}
		if first, ok := res.First(); ok {
			check.Message = first.Message
			check.Alternatives = res.Alternatives
			return nil
		}

		check.Unique = true
		check.Message = "field name is available"
		return nil
	})
	if err != nil {
		return nil, err
	}
	return check, nil
}

// FieldsByRoots returns the fields whose root list contains every given root
func (s *Service) FieldsByRoots(ctx context.Context, roots []string) ([]*Field, error) {
	if len(roots) == 0 {
		return []*Field{}, nil
	}

	var fields []*Field
	err := s.run(ctx, "field.by_roots", func(tx Tx) error {
		var err error
		fields, err = tx.FieldsWithRoots(ctx, distinct(roots))
		return err
	})
	return fields, err
}

// FieldLineage lists the models a field feeds
func (s *Service) FieldLineage(ctx context.Context, fieldID int64) ([]*Lineage, error) {
	var lineage []*Lineage
	err := s.run(ctx, "field.lineage", func(tx Tx) error {
		if _, err := getField(ctx, tx, fieldID); err != nil {
			return err
		}
		var err error
		lineage, err = tx.ListLineage(ctx, LineageFilter{FieldID: fieldID})
		return err
	})
	return lineage, err
}

// requireLiveRoots fails with MissingRoots listing every name that has no
// active root, in input order
func (s *Service) requireLiveRoots(ctx context.Context, tx Tx, names []string) error {
	roots, err := tx.RootsByCanonical(ctx, distinct(names))
	if err != nil {
		return err
	}

	var missing []string
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if r, ok := roots[name]; !ok || r.Status != StatusActive {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return missingRoots(missing)
	}
	return nil
}

// validFieldName normalizes and validates a field name
func (s *Service) validFieldName(name string) (string, error) {
	canonical := naming.Normalize(name)
	if canonical == "" {
		return "", newError(ValidationError, "field name must not be empty")
	}
	if err := checkRawName("field", name); err != nil {
		return "", err
	}
	if err := naming.Validate(canonical, s.checker.FieldMaxLength); err != nil {
		return "", invalidName("field", err)
	}
	return canonical, nil
}

func requireDerivedName(name string, roots []string) error {
	derived := naming.Join(roots)
	if name == derived {
		return nil
	}
	e := newError(FieldNameInvalid, "field name must be the root combination: %s", derived)
	e.Alternatives = []string{derived}
	return e
}

// adjustUsage applies delta once to every distinct root in names
func adjustUsage(ctx context.Context, tx Tx, names []string, delta int) error {
	for _, name := range distinct(names) {
		if err := tx.AdjustRootUsage(ctx, name, delta); err != nil {
			return fmt.Errorf("adjust usage of root %s: %w", name, err)
		}
	}
	return nil
}

func fieldEntry(field *Field) conflict.Entry {
	return conflict.Entry{
		Kind:    conflict.KindField,
		Name:    field.Canonical,
		Raw:     field.Name,
		OwnerID: field.ID,
	}
}

// fieldConflict converts a failed field check into a domain error
func fieldConflict(res *conflict.Result) *Error {
	if c, ok := res.Syntax(); ok {
		return newError(ValidationError, "%s", c.Message)
	}

	first, _ := res.First()
	e := newError(FieldNameConflict, "%s", first.Message)
	e.Details = res.Messages()
	e.ConflictID = first.OwnerID
	e.Alternatives = res.Alternatives
	if len(res.Alternatives) > 0 {
		e.Details = append(e.Details, fmt.Sprintf("suggested: %v", res.Alternatives))
	}
	return e
}
