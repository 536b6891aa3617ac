package dict

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/conflict"
	"github.com/datadict/datadict/internal/naming"
)

// CreateRoot registers a new root. The name is normalized and validated,
// then checked against every root, alias and field name.
func (s *Service) CreateRoot(ctx context.Context, in RootInput) (*Root, error) {
	var created *Root
	err := s.run(ctx, "root.create", func(tx Tx) error {
		canonical := naming.Normalize(in.Name)
		if canonical == "" {
			return newError(ValidationError, "root name must not be empty")
		}
		if err := checkRawName("root", in.Name); err != nil {
			return err
		}
		if err := naming.Validate(canonical, s.checker.RootMaxLength); err != nil {
			return invalidName("root", err)
		}

		idx, err := s.index(ctx, tx)
		if err != nil {
			return err
		}
		if res := s.checker.CheckRoot(in.Name, idx); res.HasConflict() {
			return rootConflict(res)
		}

		now := s.timestamp()
		root := &Root{
			Name:      in.Name,
			Canonical: canonical,
			Aliases:   []string{},
			Tags:      tagsOrEmpty(in.Tags),
			Remark:    in.Remark,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertRoot(ctx, root); err != nil {
			return duplicateAs(err, RootNameConflict, canonical)
		}
		if err := tx.AddName(ctx, rootEntry(root)); err != nil {
			return duplicateAs(err, RootNameConflict, canonical)
		}

		created = root
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("root created",
		zap.Int64("id", created.ID),
		zap.String("name", created.Canonical),
	)
	return created, nil
}

// GetRoot returns a root by id
func (s *Service) GetRoot(ctx context.Context, id int64) (*Root, error) {
	var root *Root
	err := s.run(ctx, "root.get", func(tx Tx) error {
		var err error
		root, err = getRoot(ctx, tx, id)
		return err
	})
	return root, err
}

// ListRoots returns one page of roots matching params
func (s *Service) ListRoots(ctx context.Context, params ListParams) ([]*Root, Page, error) {
	params = params.Normalized()
	if params.Status != "" && !params.Status.Valid() {
		return nil, Page{}, invalidStatus(params.Status)
	}

	var (
		roots []*Root
		total int
	)
	err := s.run(ctx, "root.list", func(tx Tx) error {
		var err error
		roots, total, err = tx.ListRoots(ctx, params)
		return err
	})
	if err != nil {
		return nil, Page{}, err
	}
	return roots, NewPage(params, total), nil
}

// UpdateRoot changes a root's name, remark or tags. A rename is checked like
// a new root, and is refused while any field references the root because
// field root lists hold canonical names.
func (s *Service) UpdateRoot(ctx context.Context, id int64, upd RootUpdate) (*Root, error) {
	var updated *Root
	err := s.run(ctx, "root.update", func(tx Tx) error {
		root, err := getRoot(ctx, tx, id)
		if err != nil {
			return err
		}

		if upd.Name != nil && *upd.Name != root.Name {
			if err := s.renameRoot(ctx, tx, root, *upd.Name); err != nil {
				return err
			}
		}
		if upd.Remark != nil {
			root.Remark = *upd.Remark
		}
		if upd.Tags != nil {
			root.Tags = tagsOrEmpty(upd.Tags)
		}

		root.UpdatedAt = s.timestamp()
		if err := tx.UpdateRoot(ctx, root); err != nil {
			return duplicateAs(err, RootNameConflict, root.Canonical)
		}
		updated = root
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("root updated", zap.Int64("id", updated.ID), zap.String("name", updated.Canonical))
	return updated, nil
}

func (s *Service) renameRoot(ctx context.Context, tx Tx, root *Root, name string) error {
	canonical := naming.Normalize(name)
	if canonical == "" {
		return newError(ValidationError, "root name must not be empty")
	}
	if err := checkRawName("root", name); err != nil {
		return err
	}
	if err := naming.Validate(canonical, s.checker.RootMaxLength); err != nil {
		return invalidName("root", err)
	}

	if canonical != root.Canonical {
		impact, err := s.impact(ctx, tx, root)
		if err != nil {
			return err
		}
		if root.UsageCount > 0 || len(impact.Fields) > 0 {
			e := newError(RootInUse, "root is in use and cannot be renamed: %s (fields: %d)", root.Name, len(impact.Fields))
			e.ConflictID = root.ID
			e.Impact = impact
			return e
		}
	}

	idx, err := s.index(ctx, tx)
	if err != nil {
		return err
	}
	if res := s.checker.CheckRoot(name, idx.Without(root.ID, conflict.KindRoot)); res.HasConflict() {
		return rootConflict(res)
	}

	if err := tx.RemoveNames(ctx, root.ID, conflict.KindRoot); err != nil {
		return err
	}
	root.Name = name
	root.Canonical = canonical
	if err := tx.AddName(ctx, rootEntry(root)); err != nil {
		return duplicateAs(err, RootNameConflict, canonical)
	}
	return nil
}

// DeleteRoot removes a root that nothing depends on. A root with a nonzero
// usage counter, referencing fields or dependent models is kept and the
// impact is reported.
func (s *Service) DeleteRoot(ctx context.Context, id int64) error {
	err := s.run(ctx, "root.delete", func(tx Tx) error {
		root, err := getRoot(ctx, tx, id)
		if err != nil {
			return err
		}

		impact, err := s.impact(ctx, tx, root)
		if err != nil {
			return err
		}
		if root.UsageCount > 0 || !impact.Empty() {
			e := newError(RootInUse, "root is in use: %s (usage count: %d)", root.Name, root.UsageCount)
			e.Details = []string{
				fmt.Sprintf("affected fields: %d", len(impact.Fields)),
				fmt.Sprintf("affected models: %d", len(impact.Models)),
			}
			e.ConflictID = root.ID
			e.Impact = impact
			return e
		}

		if err := tx.RemoveNames(ctx, root.ID, conflict.KindRoot, conflict.KindAlias); err != nil {
			return err
		}
		return tx.DeleteRoot(ctx, root.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("root deleted", zap.Int64("id", id))
	return nil
}

// RootImpact walks root -> referencing fields -> models binding them
func (s *Service) RootImpact(ctx context.Context, id int64) (*Impact, error) {
	var impact *Impact
	err := s.run(ctx, "root.impact", func(tx Tx) error {
		root, err := getRoot(ctx, tx, id)
		if err != nil {
			return err
		}
		impact, err = s.impact(ctx, tx, root)
		return err
	})
	return impact, err
}

func (s *Service) impact(ctx context.Context, tx Tx, root *Root) (*Impact, error) {
	fields, err := tx.FieldsWithRoots(ctx, []string{root.Canonical})
	if err != nil {
		return nil, err
	}

	impact := &Impact{Fields: []EntityRef{}, Models: []EntityRef{}}
	if len(fields) == 0 {
		return impact, nil
	}

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
		impact.Fields = append(impact.Fields, EntityRef{ID: f.ID, Name: f.Name})
	}

	models, err := tx.ModelsBindingFields(ctx, ids)
	if err != nil {
		return nil, err
	}
	impact.Models = append(impact.Models, models...)
	return impact, nil
}

// AddAlias registers an alternate canonical name for a root. Adding an alias
// the root already has is a no-op. A new alias must not collide with any
// root, alias or field name.
func (s *Service) AddAlias(ctx context.Context, id int64, alias string) (*Root, error) {
	var (
		root  *Root
		added bool
	)
	err := s.run(ctx, "root.alias", func(tx Tx) error {
		var err error
		root, err = getRoot(ctx, tx, id)
		if err != nil {
			return err
		}

		canonical := naming.Normalize(alias)
		if canonical == "" {
			return newError(ValidationError, "alias must not be empty")
		}
		if err := checkRawName("alias", alias); err != nil {
			return err
		}
		if root.HasAlias(canonical) {
			return nil
		}

		idx, err := s.index(ctx, tx)
		if err != nil {
			return err
		}
		if res := s.checker.CheckRoot(alias, idx); res.HasConflict() {
			return rootConflict(res)
		}

		root.Aliases = append(root.Aliases, canonical)
		root.UpdatedAt = s.timestamp()
		if err := tx.UpdateRoot(ctx, root); err != nil {
			return err
		}
		if err := tx.AddName(ctx, conflict.Entry{
			Kind:    conflict.KindAlias,
			Name:    canonical,
			Raw:     canonical,
			OwnerID: root.ID,
		}); err != nil {
			return duplicateAs(err, RootNameConflict, canonical)
		}
		added = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.logger.Info("root alias added", zap.Int64("id", root.ID), zap.Strings("aliases", root.Aliases))
	}
	return root, nil
}

// SetRootStatus moves a root between active and deprecated. Deprecated roots
// cannot be used in new root lists.
func (s *Service) SetRootStatus(ctx context.Context, id int64, status Status) (*Root, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}

	var root *Root
	err := s.run(ctx, "root.status", func(tx Tx) error {
		var err error
		root, err = getRoot(ctx, tx, id)
		if err != nil {
			return err
		}
		root.Status = status
		root.UpdatedAt = s.timestamp()
		return tx.UpdateRoot(ctx, root)
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// CheckRootName reports whether a root name is available, with the
// suggested alternative when it is not
func (s *Service) CheckRootName(ctx context.Context, name string) (*RootNameCheck, error) {
	check := &RootNameCheck{Name: name, Canonical: naming.Normalize(name), Alternatives: []string{}}
	if check.Canonical == "" {
		check.Message = "root name must not be empty"
		return check, nil
	}

	err := s.run(ctx, "root.check", func(tx Tx) error {
		idx, err := s.index(ctx, tx)
		if err != nil {
			return err
		}

		res := s.checker.CheckRoot(name, idx)
		if c, ok := res.Syntax(); ok {
			check.Message = c.Message
			return nil
		}
		if first, ok := res.First(); ok {
			check.Message = first.Message
			check.ConflictID = first.OwnerID
			check.Alternatives = res.Alternatives
			return nil
		}

		check.Unique = true
		check.Message = "root name is available"
		return nil
	})
	if err != nil {
		return nil, err
	}
	return check, nil
}

func rootEntry(root *Root) conflict.Entry {
	return conflict.Entry{
		Kind:    conflict.KindRoot,
		Name:    root.Canonical,
		Raw:     root.Name,
		OwnerID: root.ID,
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return distinct(tags)
}

// rootConflict converts a failed root check into a domain error
func rootConflict(res *conflict.Result) *Error {
	if c, ok := res.Syntax(); ok {
		return newError(ValidationError, "%s", c.Message)
	}

	first, _ := res.First()
	e := newError(RootNameConflict, "%s", first.Message)
	e.Details = res.Messages()
	e.ConflictID = first.OwnerID
	e.Alternatives = res.Alternatives
	if len(res.Alternatives) > 0 {
		e.Message = fmt.Sprintf("%s, suggested: %s", first.Message, res.Alternatives[0])
		e.Details = append(e.Details, "suggested: "+res.Alternatives[0])
	}
	return e
}

// duplicateAs maps a uniqueness violation raised by the store, typically
// from a concurrent writer that passed the same check, to a conflict error
func duplicateAs(err error, kind Kind, name string) error {
	if errors.Is(err, ErrDuplicate) {
		e := newError(kind, "name already exists: %s", name)
		e.Err = err
		return e
	}
	return err
}

// checkRawName bounds the length of a name as typed. The canonical form of
// a long raw name can be short, so Validate alone does not cover it.
func checkRawName(what, raw string) error {
	if n := utf8.RuneCountInString(raw); n > naming.RawMaxLength {
		return newError(ValidationError, "invalid %s name: exceeds %d characters (got %d)", what, naming.RawMaxLength, n)
	}
	return nil
}

func invalidName(what string, err error) *Error {
	return newError(ValidationError, "invalid %s name: %s", what, err)
}

func invalidStatus(status Status) *Error {
	return newError(ValidationError, "invalid status: %q (want %q or %q)", status, StatusActive, StatusDeprecated)
}
