package conflict

import (
	"fmt"
	"sort"

	"github.com/datadict/datadict/internal/naming"
)

// Severity orders conflicts for display. It never affects whether an
// operation is rejected: any conflict rejects.
type Severity int

const (
	// SeveritySyntax is an invalid candidate name
	SeveritySyntax Severity = iota + 1
	// SeverityRoot is a collision with a root or one of its aliases
	SeverityRoot
	// SeverityField is a collision with a field
	SeverityField
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeveritySyntax:
		return "naming_invalid"
	case SeverityRoot:
		return "root_conflict"
	case SeverityField:
		return "field_conflict"
	default:
		return "unknown"
	}
}

// DefaultSemanticSuffixes are tried, in order, before numeric suffixes when
// suggesting alternatives for a field name
var DefaultSemanticSuffixes = []string{"_v2", "_daily", "_monthly", "_amount", "_cnt", "_ts", "_id"}

// DefaultMaxFieldAlternatives caps the suggestions returned for a field name
const DefaultMaxFieldAlternatives = 3

// Conflict is one reason a candidate name cannot be used
type Conflict struct {
	Severity Severity
	Kind     Kind // zero for syntax conflicts
	OwnerID  int64
	Name     string
	Message  string
}

// Result is the outcome of a conflict check
type Result struct {
	Canonical    string
	Conflicts    []Conflict
	Alternatives []string
}

// HasConflict reports whether the candidate was rejected
func (r *Result) HasConflict() bool {
	return len(r.Conflicts) > 0
}

// First returns the first conflict that references an existing entity
func (r *Result) First() (Conflict, bool) {
	for _, c := range r.Conflicts {
		if c.Severity != SeveritySyntax {
			return c, true
		}
	}
	return Conflict{}, false
}

// Syntax returns the syntax conflict, if the candidate was malformed
func (r *Result) Syntax() (Conflict, bool) {
	for _, c := range r.Conflicts {
		if c.Severity == SeveritySyntax {
			return c, true
		}
	}
	return Conflict{}, false
}

// Messages returns the conflict messages in reporting order
func (r *Result) Messages() []string {
	out := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		out = append(out, c.Message)
	}
	return out
}

// SortBySeverity orders conflicts syntax first, then roots, then fields.
// Conflicts of equal severity keep their relative order.
func SortBySeverity(conflicts []Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity < conflicts[j].Severity
	})
}

// Checker runs conflict checks for root and field candidates
type Checker struct {
	RootMaxLength    int
	FieldMaxLength   int
	SemanticSuffixes []string
	MaxAlternatives  int
}

// NewChecker creates a checker with the default naming limits
func NewChecker() *Checker {
	return &Checker{
		RootMaxLength:    naming.RootMaxLength,
		FieldMaxLength:   naming.FieldMaxLength,
		SemanticSuffixes: DefaultSemanticSuffixes,
		MaxAlternatives:  DefaultMaxFieldAlternatives,
	}
}

// CheckRoot checks a root (or alias) candidate against the index.
//
// The candidate is normalized and validated first; a malformed candidate
// yields a single syntax conflict and no alternative. Otherwise every root
// whose canonical name or raw name matches is reported, followed by every
// field holding the canonical name. Aliases count as names of their root.
// On conflict exactly one alternative is suggested, unique across all names.
func (c *Checker) CheckRoot(candidate string, idx *Index) *Result {
	canonical := naming.Normalize(candidate)
	res := &Result{Canonical: canonical}

	if err := naming.Validate(canonical, c.RootMaxLength); err != nil {
		res.Conflicts = []Conflict{syntaxConflict(canonical, err)}
		return res
	}

	seen := make(map[int64]bool)
	for _, e := range idx.entries {
		if !e.Kind.IsRootName() || seen[e.OwnerID] {
			continue
		}
		if e.Name == canonical || (e.Kind == KindRoot && e.Raw == candidate) {
			seen[e.OwnerID] = true
			res.Conflicts = append(res.Conflicts, rootConflict(e))
		}
	}

	for _, e := range idx.Lookup(canonical) {
		if e.Kind == KindField {
			res.Conflicts = append(res.Conflicts, fieldConflict(e))
		}
	}

	if res.HasConflict() {
		SortBySeverity(res.Conflicts)
		res.Alternatives = []string{naming.Alternative(canonical, idx.Taken, c.RootMaxLength)}
	}
	return res
}

// CheckField checks a field candidate against the index.
//
// A field may not reuse another field's canonical name, nor any root or
// alias name. On conflict up to MaxAlternatives suggestions are returned,
// semantic suffixes first and numeric suffixes after.
func (c *Checker) CheckField(candidate string, idx *Index) *Result {
	canonical := naming.Normalize(candidate)
	res := &Result{Canonical: canonical}

	if err := naming.Validate(canonical, c.FieldMaxLength); err != nil {
		res.Conflicts = []Conflict{syntaxConflict(canonical, err)}
		return res
	}

	for _, e := range idx.Lookup(canonical) {
		switch {
		case e.Kind == KindField:
			res.Conflicts = append(res.Conflicts, fieldConflict(e))
		case e.Kind.IsRootName():
			res.Conflicts = append(res.Conflicts, rootConflict(e))
		}
	}

	if res.HasConflict() {
		SortBySeverity(res.Conflicts)
		res.Alternatives = c.FieldAlternatives(canonical, idx.Taken)
	}
	return res
}

// FieldAlternatives suggests replacement field names for base
func (c *Checker) FieldAlternatives(base string, taken func(string) bool) []string {
	limit := c.MaxAlternatives
	if limit <= 0 {
		limit = DefaultMaxFieldAlternatives
	}

	chosen := make(map[string]bool, limit)
	alternatives := make([]string, 0, limit)

	for _, suffix := range c.SemanticSuffixes {
		if len(alternatives) >= limit {
			return alternatives
		}
		name := base + suffix
		if len(name) > c.FieldMaxLength || taken(name) || chosen[name] {
			continue
		}
		chosen[name] = true
		alternatives = append(alternatives, name)
	}

	unavailable := func(name string) bool { return chosen[name] || taken(name) }
	for len(alternatives) < limit {
		name := naming.Alternative(base, unavailable, c.FieldMaxLength)
		chosen[name] = true
		alternatives = append(alternatives, name)
	}
	return alternatives
}

func syntaxConflict(canonical string, err error) Conflict {
	return Conflict{
		Severity: SeveritySyntax,
		Name:     canonical,
		Message:  fmt.Sprintf("invalid name: %s", err),
	}
}

func rootConflict(e Entry) Conflict {
	msg := fmt.Sprintf("root name conflict: %s (ID: %d)", e.Raw, e.OwnerID)
	if e.Kind == KindAlias {
		msg = fmt.Sprintf("root name conflict: alias %s (ID: %d)", e.Name, e.OwnerID)
	}
	return Conflict{
		Severity: SeverityRoot,
		Kind:     e.Kind,
		OwnerID:  e.OwnerID,
		Name:     e.Raw,
		Message:  msg,
	}
}

func fieldConflict(e Entry) Conflict {
	return Conflict{
		Severity: SeverityField,
		Kind:     KindField,
		OwnerID:  e.OwnerID,
		Name:     e.Raw,
		Message:  fmt.Sprintf("field name conflict: %s (ID: %d)", e.Raw, e.OwnerID),
	}
}
