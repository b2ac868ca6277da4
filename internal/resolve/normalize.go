package resolve

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/ordered"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

type visit uint8

const (
	unvisited visit = iota
	visiting
	visited
)

// Normalizer turns raw schemas into registry entries. Component schemas are
// normalized on demand so an allOf member is always complete before it is
// merged; a member that is still being normalized is a cycle.
type Normalizer struct {
	components *ordered.Map[*spec.Schema]
	reg        *Registry
	state      map[string]visit
	logger     *slog.Logger
}

func NewNormalizer(components *ordered.Map[*spec.Schema], reg *Registry, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = discardLogger
	}
	return &Normalizer{
		components: components,
		reg:        reg,
		state:      map[string]visit{},
		logger:     logger,
	}
}

// Components normalizes every component schema in document order.
func (n *Normalizer) Components() error {
	for name := range n.components.All() {
		if _, err := n.component(name, ""); err != nil {
			return err
		}
	}
	return nil
}

// component returns the normalized component schema name. from names the
// schema whose allOf asked for it, for error messages.
func (n *Normalizer) component(name, from string) (*Schema, error) {
	switch n.state[name] {
	case visited:
		s, _ := n.reg.Get(name)
		return s, nil
	case visiting:
		return nil, &spec.SpecError{
			Code:        spec.ReferenceError,
			Message:     fmt.Sprintf("resolve: allOf cycle: %s refers back to %s", from, name),
			JSONPointer: "#/components/schemas/" + name,
			Cause:       spec.ErrCircular,
		}
	}
	raw, ok := n.components.Get(name)
	if !ok {
		err := &spec.SpecError{
			Code:    spec.ReferenceError,
			Message: fmt.Sprintf("resolve: allOf in %s references unknown schema %q", from, name),
		}
		if n.components.Has(from) {
			err.JSONPointer = "#/components/schemas/" + from
		}
		return nil, err
	}
	n.state[name] = visiting
	s, err := n.Register(name, raw)
	n.state[name] = visited
	return s, err
}

// Register normalizes raw and stores it under name. The entry is added before
// its children so declarations read parent first.
func (n *Normalizer) Register(name string, raw *spec.Schema) (*Schema, error) {
	if raw == nil {
		raw = &spec.Schema{}
	}
	s := &Schema{Name: name, Description: raw.Description}
	if err := n.reg.Add(s); err != nil {
		return nil, err
	}
	n.logger.Debug("register schema", "name", name)

	switch {
	case raw.IsRef(), len(raw.Union()) > 0:
		s.Kind = KindAlias
		s.Alias = Describe(raw)
		s.Alias.Description = ""
	case len(raw.AllOf) > 0:
		s.Kind = KindObject
		return s, n.mergeAllOf(s, raw)
	case len(raw.Enum) > 0:
		s.Kind = KindEnum
		s.EnumValues = raw.Enum
	case raw.IsArray():
		s.Kind = KindArray
		items, err := n.property(name, "items", raw.Items)
		if err != nil {
			return nil, err
		}
		if inlineShape(raw.Items) {
			s.ChildType = items.Ref
		}
		s.Items = items
	case raw.IsObject():
		s.Kind = KindObject
		return s, n.addProperties(s, raw)
	default:
		s.Kind = KindAlias
		s.Alias = Describe(raw)
		s.Alias.Description = ""
	}
	return s, nil
}

// mergeAllOf folds every member into s in order: referenced members
// contribute their normalized properties, inline members their own. Own
// properties come last and win collisions; required sets are unioned.
func (n *Normalizer) mergeAllOf(s *Schema, raw *spec.Schema) error {
	for _, m := range raw.AllOf {
		if !m.IsRef() {
			if len(m.AllOf) > 0 {
				if err := n.mergeAllOf(s, m); err != nil {
					return err
				}
				continue
			}
			if err := n.addProperties(s, m); err != nil {
				return err
			}
			continue
		}
		target, err := n.component(spec.RefName(m.Ref), s.Name)
		if err != nil {
			return err
		}
		target, err = n.followAliases(target, s.Name)
		if err != nil {
			return err
		}
		ensureObject(s)
		for field, p := range target.Properties.All() {
			s.Properties.Set(field, p)
		}
		for field := range target.Required {
			s.Required[field] = true
		}
	}
	return n.addProperties(s, raw)
}

// followAliases resolves `A: {$ref: B}` chains to the schema that has fields.
func (n *Normalizer) followAliases(s *Schema, from string) (*Schema, error) {
	for seen := 0; s.Kind == KindAlias && s.Alias.Ref != "" && seen < n.components.Len(); seen++ {
		next, err := n.component(s.Alias.Ref, from)
		if err != nil {
			return nil, err
		}
		s = next
	}
	return s, nil
}

func ensureObject(s *Schema) {
	if s.Properties == nil {
		s.Properties = ordered.New[*Property]()
	}
	if s.Required == nil {
		s.Required = map[string]bool{}
	}
}

func (n *Normalizer) addProperties(s *Schema, raw *spec.Schema) error {
	ensureObject(s)
	for field, ps := range raw.Properties.All() {
		p, err := n.property(s.Name, field, ps)
		if err != nil {
			return err
		}
		s.Properties.Set(field, p)
		if ps != nil && ps.RequiredFlag != nil && *ps.RequiredFlag {
			s.Required[field] = true
		}
	}
	for _, field := range raw.Required {
		s.Required[field] = true
	}
	return nil
}

// property normalizes the schema of field inside parent. Inline objects,
// enums and non-folding allOf compositions become parent+Pascal(field).
func (n *Normalizer) property(parent, field string, raw *spec.Schema) (*Property, error) {
	if raw == nil {
		return &Property{}, nil
	}
	switch {
	case inlineShape(raw):
		name := parent + naming.ToPascalCase(field)
		if _, err := n.Register(name, raw); err != nil {
			return nil, err
		}
		p := &Property{Ref: name, Nullable: allOfNullable(raw), Description: raw.Description}
		if raw.RequiredFlag != nil && !*raw.RequiredFlag {
			p.Optional = true
		}
		return p, nil
	case len(raw.AllOf) > 0:
		member, _ := foldAllOf(raw)
		p, err := n.property(parent, field, member)
		if err != nil {
			return nil, err
		}
		folded := *p
		mergeFoldedAttrs(&folded, raw)
		return &folded, nil
	case raw.IsArray():
		p := Describe(raw)
		items, err := n.property(parent, field, raw.Items)
		if err != nil {
			return nil, err
		}
		p.Items = items
		return p, nil
	default:
		return Describe(raw), nil
	}
}
