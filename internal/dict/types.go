package dict

import "time"

// Status is the lifecycle state of a dictionary entity
type Status string

const (
	// StatusActive is the default state of every new entity
	StatusActive Status = "active"
	// StatusDeprecated marks an entity that should no longer be used
	StatusDeprecated Status = "deprecated"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDeprecated
}

// Root is a reusable naming unit
type Root struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Canonical  string    `json:"normalized_name"`
	Aliases    []string  `json:"aliases"`
	Tags       []string  `json:"tags"`
	UsageCount int       `json:"usage_count"`
	Remark     string    `json:"remark"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasAlias reports whether the root already carries the canonical alias
func (r *Root) HasAlias(alias string) bool {
	for _, a := range r.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// Field is a composite name built from an ordered list of roots
type Field struct {
	ID        int64     `json:"id"`
	Name      string    `json:"field_name"`
	Canonical string    `json:"normalized_name"`
	Roots     []string  `json:"root_list"`
	DataType  string    `json:"data_type"`
	Meaning   string    `json:"meaning"`
	Remark    string    `json:"remark"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Model is a named, ordered collection of field bindings
type Model struct {
	ID          int64     `json:"id"`
	Name        string    `json:"model_name"`
	Canonical   string    `json:"normalized_name"`
	Description string    `json:"description"`
	Remark      string    `json:"remark"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ModelField binds a field to a model
type ModelField struct {
	ID        int64     `json:"id"`
	ModelID   int64     `json:"model_id"`
	FieldID   int64     `json:"field_id"`
	Position  int       `json:"pos"`
	Required  bool      `json:"required"`
	Default   *string   `json:"default_value"`
	CreatedAt time.Time `json:"created_at"`
}

// BoundField is a binding joined with the data of its field
type BoundField struct {
	ModelField
	FieldName string `json:"field_name"`
	Meaning   string `json:"meaning"`
	DataType  string `json:"data_type"`
}

// ModelDetail is a model with its bindings ordered by position
type ModelDetail struct {
	Model
	Fields []BoundField `json:"fields"`
}

// Lineage records that a field feeds a model
type Lineage struct {
	ID        int64     `json:"id"`
	FieldID   int64     `json:"field_id"`
	ModelID   int64     `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityRef identifies an entity in impact reports
type EntityRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Impact lists what depends on a root
type Impact struct {
	Fields []EntityRef `json:"fields"`
	Models []EntityRef `json:"models"`
}

// Empty reports whether nothing depends on the root
func (i *Impact) Empty() bool {
	return len(i.Fields) == 0 && len(i.Models) == 0
}

// RootInput holds the data for a new root
type RootInput struct {
	Name   string   `json:"name"`
	Remark string   `json:"remark"`
	Tags   []string `json:"tags"`
}

// RootUpdate holds optional root changes; nil fields are left untouched
type RootUpdate struct {
	Name   *string  `json:"name"`
	Remark *string  `json:"remark"`
	Tags   []string `json:"tags"`
}

// FieldInput holds the data for a new field
type FieldInput struct {
	Name     string   `json:"field_name"`
	Roots    []string `json:"root_list"`
	DataType string   `json:"data_type"`
	Meaning  string   `json:"meaning"`
	Remark   string   `json:"remark"`
}

// FieldUpdate holds optional field changes; nil fields are left untouched
type FieldUpdate struct {
	Name     *string  `json:"field_name"`
	Roots    []string `json:"root_list"`
	DataType *string  `json:"data_type"`
	Meaning  *string  `json:"meaning"`
	Remark   *string  `json:"remark"`
}

// FieldNameCheck is the result of a field name availability check
type FieldNameCheck struct {
	Name         string   `json:"field_name"`
	Canonical    string   `json:"normalized_name"`
	Unique       bool     `json:"is_unique"`
	Message      string   `json:"message"`
	Alternatives []string `json:"alternatives"`
}

// RootNameCheck is the result of a root name availability check
type RootNameCheck struct {
	Name         string   `json:"name"`
	Canonical    string   `json:"normalized_name"`
	Unique       bool     `json:"is_unique"`
	Message      string   `json:"message"`
	ConflictID   int64    `json:"conflict_id,omitempty"`
	Alternatives []string `json:"alternatives"`
}

// ModelInput holds the data for a new model
type ModelInput struct {
	Name        string `json:"model_name"`
	Description string `json:"description"`
	Remark      string `json:"remark"`
}

// ModelUpdate holds optional model changes; nil fields are left untouched
type ModelUpdate struct {
	Name        *string `json:"model_name"`
	Description *string `json:"description"`
	Remark      *string `json:"remark"`
}

// BindingInput holds the data for binding a field to a model
type BindingInput struct {
	FieldID  int64   `json:"field_id"`
	Position int     `json:"pos"`
	Required bool    `json:"required"`
	Default  *string `json:"default_value"`
}

const (
	// DefaultPageSize is used when a list request does not set a page size
	DefaultPageSize = 20
	// MaxPageSize caps the page size of list requests
	MaxPageSize = 100
)

// ListParams filters and paginates list operations
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Status   Status
	Root     string // fields only: keep fields whose root list contains this root
}

// Normalized returns the params with page bounds applied
func (p ListParams) Normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page describes the position of a list result
type Page struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPage computes page metadata for total matching rows
func NewPage(p ListParams, total int) Page {
	p = p.Normalized()
	pages := (total + p.PageSize - 1) / p.PageSize
	return Page{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
