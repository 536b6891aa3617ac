package dict

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/naming"
)

// CreateModel registers a model with a unique canonical name
func (s *Service) CreateModel(ctx context.Context, in ModelInput) (*Model, error) {
	var created *Model
	err := s.run(ctx, "model.create", func(tx Tx) error {
		canonical, err := validModelName(in.Name)
		if err != nil {
			return err
		}
		if err := s.requireFreeModelName(ctx, tx, canonical, 0); err != nil {
			return err
		}

		now := s.timestamp()
		model := &Model{
			Name:        in.Name,
			Canonical:   canonical,
			Description: in.Description,
			Remark:      in.Remark,
			Status:      StatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertModel(ctx, model); err != nil {
			return duplicateAs(err, ModelNameConflict, canonical)
		}
		created = model
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("model created", zap.Int64("id", created.ID), zap.String("name", created.Canonical))
	return created, nil
}

// GetModel returns a model by id
func (s *Service) GetModel(ctx context.Context, id int64) (*Model, error) {
	var model *Model
	err := s.run(ctx, "model.get", func(tx Tx) error {
		var err error
		model, err = getModel(ctx, tx, id)
		return err
	})
	return model, err
}

// ModelDetail returns a model with its bound fields ordered by position
func (s *Service) ModelDetail(ctx context.Context, id int64) (*ModelDetail, error) {
	var detail *ModelDetail
	err := s.run(ctx, "model.detail", func(tx Tx) error {
		model, err := getModel(ctx, tx, id)
		if err != nil {
			return err
		}
		fields, err := tx.ModelBindings(ctx, model.ID)
		if err != nil {
			return err
		}
		if fields == nil {
			fields = []BoundField{}
		}
		detail = &ModelDetail{Model: *model, Fields: fields}
		return nil
	})
	return detail, err
}

// ListModels returns one page of models matching params
func (s *Service) ListModels(ctx context.Context, params ListParams) ([]*Model, Page, error) {
	params = params.Normalized()
	if params.Status != "" && !params.Status.Valid() {
		return nil, Page{}, invalidStatus(params.Status)
	}

	var (
		models []*Model
		total  int
	)
	err := s.run(ctx, "model.list", func(tx Tx) error {
		var err error
		models, total, err = tx.ListModels(ctx, params)
		return err
	})
	if err != nil {
		return nil, Page{}, err
	}
	return models, NewPage(params, total), nil
}

// UpdateModel changes a model's name, description or remark
func (s *Service) UpdateModel(ctx context.Context, id int64, upd ModelUpdate) (*Model, error) {
	var updated *Model
	err := s.run(ctx, "model.update", func(tx Tx) error {
		model, err := getModel(ctx, tx, id)
		if err != nil {
			return err
		}

		if upd.Name != nil && *upd.Name != model.Name {
			canonical, err := validModelName(*upd.Name)
			if err != nil {
				return err
			}
			if err := s.requireFreeModelName(ctx, tx, canonical, model.ID); err != nil {
				return err
			}
			model.Name = *upd.Name
			model.Canonical = canonical
		}
		if upd.Description != nil {
			model.Description = *upd.Description
		}
		if upd.Remark != nil {
			model.Remark = *upd.Remark
		}

		model.UpdatedAt = s.timestamp()
		if err := tx.UpdateModel(ctx, model); err != nil {
			return duplicateAs(err, ModelNameConflict, model.Canonical)
		}
		updated = model
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("model updated", zap.Int64("id", updated.ID), zap.String("name", updated.Canonical))
	return updated, nil
}

// SetModelStatus moves a model between active and deprecated
func (s *Service) SetModelStatus(ctx context.Context, id int64, status Status) (*Model, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}

	var model *Model
	err := s.run(ctx, "model.status", func(tx Tx) error {
		var err error
		model, err = getModel(ctx, tx, id)
		if err != nil {
			return err
		}
		model.Status = status
		model.UpdatedAt = s.timestamp()
		return tx.UpdateModel(ctx, model)
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// DeleteModel removes a model together with all of its bindings and lineage
func (s *Service) DeleteModel(ctx context.Context, id int64) error {
	err := s.run(ctx, "model.delete", func(tx Tx) error {
		model, err := getModel(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteModelLineage(ctx, model.ID); err != nil {
			return err
		}
		if err := tx.DeleteModelBindings(ctx, model.ID); err != nil {
			return err
		}
		return tx.DeleteModel(ctx, model.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("model deleted", zap.Int64("id", id))
	return nil
}

// BindField binds a field to a model and records the lineage in the same
// unit of work. A (model, field) pair can be bound once.
func (s *Service) BindField(ctx context.Context, modelID int64, in BindingInput) (*ModelField, error) {
	if in.Position < 0 {
		return nil, newError(ValidationError, "position must not be negative: %d", in.Position)
	}

	var binding *ModelField
	err := s.run(ctx, "model.bind", func(tx Tx) error {
		model, err := getModel(ctx, tx, modelID)
		if err != nil {
			return err
		}
		field, err := getField(ctx, tx, in.FieldID)
		if err != nil {
			return err
		}

		if _, err := tx.GetBinding(ctx, model.ID, field.ID); err == nil {
			return alreadyBound(field, model)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := s.timestamp()
		binding = &ModelField{
			ModelID:   model.ID,
			FieldID:   field.ID,
			Position:  in.Position,
			Required:  in.Required,
			Default:   in.Default,
			CreatedAt: now,
		}
		if err := tx.InsertBinding(ctx, binding); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return alreadyBound(field, model)
			}
			return err
		}
		return tx.InsertLineage(ctx, &Lineage{
			FieldID:   field.ID,
			ModelID:   model.ID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("field bound",
		zap.Int64("model_id", binding.ModelID),
		zap.Int64("field_id", binding.FieldID),
		zap.Int("pos", binding.Position),
	)
	return binding, nil
}

// UnbindField removes a binding and its lineage together
func (s *Service) UnbindField(ctx context.Context, modelID, fieldID int64) error {
	err := s.run(ctx, "model.unbind", func(tx Tx) error {
		model, err := getModel(ctx, tx, modelID)
		if err != nil {
			return err
		}

		if _, err := tx.GetBinding(ctx, model.ID, fieldID); err != nil {
			if errors.Is(err, ErrNotFound) {
				e := newError(FieldNotBound, "field is not bound to model: %d -> %s", fieldID, model.Name)
				e.ConflictID = fieldID
				return e
			}
			return err
		}

		if err := tx.DeleteBinding(ctx, model.ID, fieldID); err != nil {
			return err
		}
		return tx.DeleteLineage(ctx, model.ID, fieldID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("field unbound", zap.Int64("model_id", modelID), zap.Int64("field_id", fieldID))
	return nil
}

// ModelLineage lists the fields feeding a model
func (s *Service) ModelLineage(ctx context.Context, modelID int64) ([]*Lineage, error) {
	var lineage []*Lineage
	err := s.run(ctx, "model.lineage", func(tx Tx) error {
		if _, err := getModel(ctx, tx, modelID); err != nil {
			return err
		}
		var err error
		lineage, err = tx.ListLineage(ctx, LineageFilter{ModelID: modelID})
		return err
	})
	return lineage, err
}

func validModelName(name string) (string, error) {
	canonical := naming.Normalize(name)
	if canonical == "" {
		return "", newError(ValidationError, "model name must not be empty")
	}
	if err := checkRawName("model", name); err != nil {
		return "", err
	}
	if err := naming.Validate(canonical, naming.ModelMaxLength); err != nil {
		return "", invalidName("model", err)
	}
	return canonical, nil
}

// requireFreeModelName fails when another model holds canonical
func (s *Service) requireFreeModelName(ctx context.Context, tx Tx, canonical string, self int64) error {
	existing, err := tx.GetModelByCanonical(ctx, canonical)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == self {
		return nil
	}

	names, err := tx.ModelNames(ctx)
	if err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(names))
	for _, n := range names {
		taken[n] = struct{}{}
	}
	alt := naming.Alternative(canonical, naming.TakenIn(taken), naming.ModelMaxLength)

	e := newError(ModelNameConflict, "model name already exists: %s (ID: %d)", existing.Name, existing.ID)
	e.ConflictID = existing.ID
	e.Alternatives = []string{alt}
	return e
}

func alreadyBound(field *Field, model *Model) *Error {
	e := newError(FieldAlreadyBound, "field is already bound to model: %s -> %s", field.Name, model.Name)
	e.ConflictID = field.ID
	return e
}
