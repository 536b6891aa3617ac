// Package seed loads dictionary content from YAML files and applies it
// through the dictionary service, so every rule applies to seeded data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/datadict/datadict/internal/dict"
	"github.com/datadict/datadict/internal/naming"
)

// File is the document layout of a seed file
type File struct {
	Roots  []Root  `yaml:"roots"`
	Fields []Field `yaml:"fields"`
	Models []Model `yaml:"models"`
}

// Root is a seeded root with its aliases
type Root struct {
	Name    string   `yaml:"name"`
	Remark  string   `yaml:"remark"`
	Tags    []string `yaml:"tags"`
	Aliases []string `yaml:"aliases"`
}

// Field is a seeded field
type Field struct {
	Name     string   `yaml:"field_name"`
	Roots    []string `yaml:"root_list"`
	DataType string   `yaml:"data_type"`
	Meaning  string   `yaml:"meaning"`
	Remark   string   `yaml:"remark"`
}

// Model is a seeded model with its bindings
type Model struct {
	Name        string    `yaml:"model_name"`
	Description string    `yaml:"description"`
	Remark      string    `yaml:"remark"`
	Fields      []Binding `yaml:"fields"`
}

// Binding binds a field, by name, to the enclosing model
type Binding struct {
	Field    string  `yaml:"field"`
	Position int     `yaml:"pos"`
	Required bool    `yaml:"required"`
	Default  *string `yaml:"default_value"`
}

// Report counts what Apply did
type Report struct {
	RootsCreated  int
	FieldsCreated int
	ModelsCreated int
	Bindings      int
	Skipped       int
}

// Decode parses a seed document, rejecting unknown keys
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses a seed file
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// Seeder applies seed files
type Seeder struct {
	svc          *dict.Service
	logger       *zap.Logger
	skipExisting bool
}

// NewSeeder creates a seeder. With skipExisting, entries whose name is
// already taken and bindings that already exist are skipped instead of
// aborting the run.
func NewSeeder(svc *dict.Service, logger *zap.Logger, skipExisting bool) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{svc: svc, logger: logger, skipExisting: skipExisting}
}

// Apply creates roots, then fields, then models and their bindings. Each
// entry is its own operation; an error stops the run and the report covers
// what was applied before it.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Report, error) {
	report := &Report{}

	for _, r := range f.Roots {
		root, err := s.svc.CreateRoot(ctx, dict.RootInput{Name: r.Name, Remark: r.Remark, Tags: r.Tags})
		if err != nil {
			if !s.skip(err, dict.RootNameConflict, "root", r.Name, report) {
				return report, fmt.Errorf("root %q: %w", r.Name, err)
			}
			continue
		}
		report.RootsCreated++

		for _, alias := range r.Aliases {
			if _, err := s.svc.AddAlias(ctx, root.ID, alias); err != nil {
				return report, fmt.Errorf("alias %q of root %q: %w", alias, r.Name, err)
			}
		}
	}

	fieldIDs := make(map[string]int64)
	for _, fd := range f.Fields {
		field, err := s.svc.CreateField(ctx, dict.FieldInput{
			Name:     fd.Name,
			Roots:    fd.Roots,
			DataType: fd.DataType,
			Meaning:  fd.Meaning,
			Remark:   fd.Remark,
		})
		if err != nil {
			if !s.skip(err, dict.FieldNameConflict, "field", fd.Name, report) {
				return report, fmt.Errorf("field %q: %w", fd.Name, err)
			}
			continue
		}
		fieldIDs[field.Canonical] = field.ID
		report.FieldsCreated++
	}

	for _, m := range f.Models {
		model, err := s.svc.CreateModel(ctx, dict.ModelInput{Name: m.Name, Description: m.Description, Remark: m.Remark})
		if err != nil {
			if !s.skip(err, dict.ModelNameConflict, "model", m.Name, report) {
				return report, fmt.Errorf("model %q: %w", m.Name, err)
			}
			if model, err = s.findModel(ctx, m.Name); err != nil {
				return report, err
			}
		} else {
			report.ModelsCreated++
		}

		for _, b := range m.Fields {
			fieldID, err := s.fieldID(ctx, fieldIDs, b.Field)
			if err != nil {
				return report, fmt.Errorf("model %q: %w", m.Name, err)
			}
			_, err = s.svc.BindField(ctx, model.ID, dict.BindingInput{
				FieldID:  fieldID,
				Position: b.Position,
				Required: b.Required,
				Default:  b.Default,
			})
			if err != nil {
				if !s.skip(err, dict.FieldAlreadyBound, "binding", m.Name+"."+b.Field, report) {
					return report, fmt.Errorf("model %q field %q: %w", m.Name, b.Field, err)
				}
				continue
			}
			report.Bindings++
		}
	}

	s.logger.Info("seed applied",
		zap.Int("roots", report.RootsCreated),
		zap.Int("fields", report.FieldsCreated),
		zap.Int("models", report.ModelsCreated),
		zap.Int("bindings", report.Bindings),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *Seeder) skip(err error, kind dict.Kind, what, name string, report *Report) bool {
	if !s.skipExisting || !dict.IsKind(err, kind) {
		return false
	}
	report.Skipped++
	s.logger.Debug("seed entry skipped", zap.String("kind", what), zap.String("name", name))
	return true
}

// fieldID resolves a field name, first among the fields created by this run
func (s *Seeder) fieldID(ctx context.Context, created map[string]int64, name string) (int64, error) {
	canonical := naming.Normalize(name)
	if id, ok := created[canonical]; ok {
		return id, nil
	}

	fields, _, err := s.svc.ListFields(ctx, dict.ListParams{Search: canonical, PageSize: dict.MaxPageSize})
	if err != nil {
		return 0, err
	}
	for _, f := range fields {
		if f.Canonical == canonical {
			created[canonical] = f.ID
			return f.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func (s *Seeder) findModel(ctx context.Context, name string) (*dict.Model, error) {
	canonical := naming.Normalize(name)
	models, _, err := s.svc.ListModels(ctx, dict.ListParams{Search: canonical, PageSize: dict.MaxPageSize})
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		if m.Canonical == canonical {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown model %q", name)
}
