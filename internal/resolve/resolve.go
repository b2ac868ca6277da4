// Package resolve turns a decoded OpenAPI document into a flat, name-addressed
// schema registry plus operation descriptors ready for emission.
//
// Resolution runs in a fixed order: operations are preprocessed (references
// inlined, path-level parameters merged, filters applied), component schemas
// are normalized, request bodies and query parameter objects are registered,
// and finally every reference is checked against the registry. Nothing is
// resolved after Resolve returns.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Options configures Resolve. The zero value rejects name collisions, keeps
// every operation and discards logs.
type Options struct {
	Filter    *spec.Filter
	Collision CollisionPolicy
	Logger    *slog.Logger
}

// Model is the output of resolution.
type Model struct {
	Registry   *Registry
	Operations []*Operation
}

// Resolve builds the registry and operation list for doc.
func Resolve(ctx context.Context, doc *spec.Document, opts Options) (*Model, error) {
	if doc == nil {
		return nil, &spec.SpecError{Code: spec.InputError, Message: "resolve: nil document"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}

	ops, err := Preprocess(doc, opts.Filter)
	if err != nil {
		return nil, err
	}
	logger.Debug("preprocessed operations", "count", len(ops))
	if len(ops) == 0 && !opts.Filter.Empty() {
		logger.Warn("no operation passed the filter")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg := NewRegistry(opts.Collision, logger)
	n := NewNormalizer(doc.Components.Schemas, reg, logger)
	if err := n.Components(); err != nil {
		return nil, err
	}
	logger.Debug("normalized component schemas", "components", doc.Components.Schemas.Len(), "registry", reg.Len())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := n.bodies(ops); err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := n.ExtractParams(op); err != nil {
			return nil, err
		}
		successResponse(op)
	}
	logger.Debug("registered operation schemas", "registry", reg.Len())

	m := &Model{Registry: reg, Operations: ops}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every reference names a registry entry.
func (m *Model) Validate() error {
	for name, s := range m.Registry.All() {
		for p := range s.Positions() {
			if p.Ref != "" && !m.Registry.Has(p.Ref) {
				return unresolved(p.Ref, "schema "+name)
			}
		}
	}
	for _, op := range m.Operations {
		where := fmt.Sprintf("%s %s", op.Method, op.Path)
		var positions []*Property
		if op.Body != nil {
			positions = append(positions, op.Body.Schema)
		}
		for _, pp := range op.PathParams {
			positions = append(positions, pp.Schema)
		}
		positions = append(positions, op.Success)
		for _, root := range positions {
			if ref := firstMissing(root, m.Registry); ref != "" {
				return unresolved(ref, where)
			}
		}
	}
	return nil
}

func firstMissing(root *Property, reg *Registry) string {
	var missing string
	walk(root, func(p *Property) bool {
		if p.Ref != "" && !reg.Has(p.Ref) {
			missing = p.Ref
			return false
		}
		return true
	})
	return missing
}

func unresolved(ref, where string) error {
	return &spec.SpecError{
		Code:        spec.ReferenceError,
		Message:     fmt.Sprintf("resolve: %s references unknown schema %q", where, ref),
		JSONPointer: "#/components/schemas/" + ref,
	}
}
