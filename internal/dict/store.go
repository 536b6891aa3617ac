package dict

import (
	"context"
	"errors"

	"github.com/datadict/datadict/internal/conflict"
)

var (
	// ErrNotFound is returned by a Tx when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by a Tx when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Store runs units of work against the persisted dictionary
type Store interface {
	// WithTx runs fn in a single transaction. The transaction commits when
	// fn returns nil and rolls back every write otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of persistence operations available inside a unit of work
type Tx interface {
	// NameIndex scans every canonical name held by roots, aliases and fields
	NameIndex(ctx context.Context) ([]conflict.Entry, error)
	// AddName registers a canonical name. It returns ErrDuplicate when the
	// name is already held by any entity.
	AddName(ctx context.Context, entry conflict.Entry) error
	// RemoveNames drops the names of the given kinds owned by ownerID
	RemoveNames(ctx context.Context, ownerID int64, kinds ...conflict.Kind) error

	GetRoot(ctx context.Context, id int64) (*Root, error)
	// RootsByCanonical returns the roots holding the given canonical names,
	// keyed by canonical name. Unknown names are absent from the map.
	RootsByCanonical(ctx context.Context, names []string) (map[string]*Root, error)
	ListRoots(ctx context.Context, params ListParams) ([]*Root, int, error)
	InsertRoot(ctx context.Context, root *Root) error
	UpdateRoot(ctx context.Context, root *Root) error
	DeleteRoot(ctx context.Context, id int64) error
	// AdjustRootUsage adds delta to the usage counter of the named root,
	// never letting it drop below zero
	AdjustRootUsage(ctx context.Context, canonical string, delta int) error

	GetField(ctx context.Context, id int64) (*Field, error)
	ListFields(ctx context.Context, params ListParams) ([]*Field, int, error)
	// FieldsWithRoots returns the fields whose root list contains every name
	FieldsWithRoots(ctx context.Context, roots []string) ([]*Field, error)
	InsertField(ctx context.Context, field *Field) error
	UpdateField(ctx context.Context, field *Field) error
	DeleteField(ctx context.Context, id int64) error

	GetModel(ctx context.Context, id int64) (*Model, error)
	GetModelByCanonical(ctx context.Context, canonical string) (*Model, error)
	// ModelNames returns the canonical name of every model
	ModelNames(ctx context.Context) ([]string, error)
	ListModels(ctx context.Context, params ListParams) ([]*Model, int, error)
	InsertModel(ctx context.Context, model *Model) error
	UpdateModel(ctx context.Context, model *Model) error
	DeleteModel(ctx context.Context, id int64) error

	GetBinding(ctx context.Context, modelID, fieldID int64) (*ModelField, error)
	// ModelBindings returns the bindings of a model ordered by position
	ModelBindings(ctx context.Context, modelID int64) ([]BoundField, error)
	CountFieldBindings(ctx context.Context, fieldID int64) (int, error)
	// ModelsBindingFields returns the distinct models binding any of the fields
	ModelsBindingFields(ctx context.Context, fieldIDs []int64) ([]EntityRef, error)
	InsertBinding(ctx context.Context, binding *ModelField) error
	DeleteBinding(ctx context.Context, modelID, fieldID int64) error
	DeleteModelBindings(ctx context.Context, modelID int64) error

	InsertLineage(ctx context.Context, lineage *Lineage) error
	DeleteLineage(ctx context.Context, modelID, fieldID int64) error
	DeleteModelLineage(ctx context.Context, modelID int64) error
	ListLineage(ctx context.Context, filter LineageFilter) ([]*Lineage, error)
}

// LineageFilter selects lineage records; zero ids match everything
type LineageFilter struct {
	FieldID int64
	ModelID int64
}
