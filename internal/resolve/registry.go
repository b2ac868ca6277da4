package resolve

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/mark3labs/swagger2ts/internal/ordered"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Kind is the declaration shape of a registry entry.
type Kind string

const (
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindEnum   Kind = "enum"
	KindAlias  Kind = "alias"
)

// Property describes one normalized type position: an object field, an array
// element, a union member or an alias target.
type Property struct {
	Type        string // primitive or structural tag; empty means unknown
	Format      string
	Nullable    bool
	Optional    bool // explicitly marked non-required
	Ref         string
	Items       *Property
	OneOf       []*Property
	Description string
}

// Schema is a named registry entry.
type Schema struct {
	Name        string
	Kind        Kind
	Properties  *ordered.Map[*Property]
	Required    map[string]bool
	EnumValues  []any
	ChildType   string    // synthesized item type of a top-level array
	Items       *Property // array element when Kind is KindArray
	Alias       *Property // target when Kind is KindAlias
	Description string
}

// CollisionPolicy decides what happens when two schemas claim one name.
type CollisionPolicy string

const (
	CollisionError     CollisionPolicy = "error"
	CollisionOverwrite CollisionPolicy = "overwrite"
)

// ParseCollisionPolicy accepts "error" or "overwrite"; empty means error.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionError:
		return CollisionError, nil
	case CollisionOverwrite:
		return CollisionOverwrite, nil
	}
	return "", fmt.Errorf("unknown collision policy %q (expected error or overwrite)", s)
}

// Registry is the flat, insertion-ordered table of normalized schemas.
type Registry struct {
	entries *ordered.Map[*Schema]
	policy  CollisionPolicy
	logger  *slog.Logger
}

func NewRegistry(policy CollisionPolicy, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = discardLogger
	}
	return &Registry{entries: ordered.New[*Schema](), policy: policy, logger: logger}
}

// Add inserts s. On a name clash the collision policy either rejects s or
// replaces the earlier entry in its original position.
func (r *Registry) Add(s *Schema) error {
	if prev, ok := r.entries.Get(s.Name); ok {
		if r.policy != CollisionOverwrite {
			return &spec.SpecError{
				Code:    spec.CollisionError,
				Message: fmt.Sprintf("resolve: schema name %q is produced twice (%s and %s)", s.Name, prev.Kind, s.Kind),
			}
		}
		r.logger.Warn("schema name collision, overwriting", "name", s.Name)
	}
	r.entries.Set(s.Name, s)
	return nil
}

func (r *Registry) Get(name string) (*Schema, bool) { return r.entries.Get(name) }

func (r *Registry) Has(name string) bool { return r.entries.Has(name) }

func (r *Registry) Len() int { return r.entries.Len() }

// All yields entries in registration order.
func (r *Registry) All() iter.Seq2[string, *Schema] { return r.entries.All() }

// Positions yields every property position of s, nested items and union members
// included.
func (s *Schema) Positions() iter.Seq[*Property] {
	return func(yield func(*Property) bool) {
		for _, p := range s.Properties.All() {
			if !walk(p, yield) {
				return
			}
		}
		if s.Items != nil && !walk(s.Items, yield) {
			return
		}
		if s.Alias != nil {
			walk(s.Alias, yield)
		}
	}
}

func walk(p *Property, yield func(*Property) bool) bool {
	if p == nil {
		return true
	}
	if !yield(p) {
		return false
	}
	if !walk(p.Items, yield) {
		return false
	}
	for _, m := range p.OneOf {
		if !walk(m, yield) {
			return false
		}
	}
	return true
}
