// Package conflict detects canonical-name collisions between a candidate name
// and the existing dictionary population, and suggests alternatives.
package conflict

import "sort"

// Kind identifies what kind of entity owns an index entry
type Kind string

const (
	// KindRoot is a root's primary canonical name
	KindRoot Kind = "root"
	// KindAlias is a canonical alias registered on a root
	KindAlias Kind = "alias"
	// KindField is a field's canonical name
	KindField Kind = "field"
)

// IsRootName reports whether the kind belongs to the root namespace
func (k Kind) IsRootName() bool {
	return k == KindRoot || k == KindAlias
}

// Entry is one canonical name held by the dictionary
type Entry struct {
	Kind    Kind
	Name    string // canonical name
	Raw     string // raw name as entered; the alias itself for aliases
	OwnerID int64
}

// Index is a point-in-time view of every canonical name in the dictionary.
// Roots, aliases and fields share one namespace.
type Index struct {
	entries []Entry
	byName  map[string][]int
}

// NewIndex builds an index from entries
func NewIndex(entries []Entry) *Index {
	idx := &Index{
		entries: make([]Entry, len(entries)),
		byName:  make(map[string][]int, len(entries)),
	}
	copy(idx.entries, entries)
	for i, e := range idx.entries {
		idx.byName[e.Name] = append(idx.byName[e.Name], i)
	}
	return idx
}

// Entries returns all entries in insertion order
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Len returns the number of entries
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup returns every entry holding the given canonical name
func (idx *Index) Lookup(name string) []Entry {
	positions := idx.byName[name]
	if len(positions) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(positions))
	for _, p := range positions {
		out = append(out, idx.entries[p])
	}
	return out
}

// Taken reports whether any entity already holds the canonical name
func (idx *Index) Taken(name string) bool {
	return len(idx.byName[name]) > 0
}

// Without returns a copy of the index without the entries of the given kinds
// owned by ownerID. It is used when an entity is renamed so that it does not
// collide with itself.
func (idx *Index) Without(ownerID int64, kinds ...Kind) *Index {
	skip := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		skip[k] = true
	}

	kept := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if e.OwnerID == ownerID && skip[e.Kind] {
			continue
		}
		kept = append(kept, e)
	}
	return NewIndex(kept)
}

// Names returns the sorted set of canonical names in the index
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.byName))
	for name := range idx.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
