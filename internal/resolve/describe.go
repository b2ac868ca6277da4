package resolve

import (
	"log/slog"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Describe maps a raw schema to a Property without registering anything.
// Inline objects stay "object"; callers that need named types go through the
// Normalizer instead.
func Describe(raw *spec.Schema) *Property {
	if raw == nil {
		return &Property{}
	}
	p := &Property{
		Type:        raw.Type,
		Format:      raw.Format,
		Nullable:    raw.Nullable,
		Description: raw.Description,
	}
	if raw.RequiredFlag != nil && !*raw.RequiredFlag {
		p.Optional = true
	}
	switch {
	case raw.IsRef():
		p.Type = ""
		p.Ref = spec.RefName(raw.Ref)
	case len(raw.Union()) > 0:
		p.Type = ""
		for _, m := range raw.Union() {
			p.OneOf = append(p.OneOf, Describe(m))
		}
	case len(raw.AllOf) > 0:
		if member, ok := foldAllOf(raw); ok {
			folded := Describe(member)
			mergeFoldedAttrs(folded, raw)
			return folded
		}
		p.Type = "object"
	case raw.IsArray():
		p.Type = "array"
		p.Items = Describe(raw.Items)
	case raw.IsObject():
		p.Type = "object"
	case p.Type == "" && len(raw.Enum) > 0:
		p.Type = enumType(raw.Enum)
	}
	return p
}

// significant reports whether an allOf member contributes a shape, as opposed
// to annotations such as nullable or description.
func significant(m *spec.Schema) bool {
	return m.IsRef() || m.Type != "" || m.Properties.Len() > 0 || m.Items != nil ||
		len(m.AllOf) > 0 || len(m.Union()) > 0 || len(m.Enum) > 0
}

// foldAllOf returns the only shape-bearing member of an allOf without own
// properties, e.g. allOf: [{$ref: X}, {nullable: true}].
func foldAllOf(raw *spec.Schema) (*spec.Schema, bool) {
	if raw.Properties.Len() > 0 {
		return nil, false
	}
	var only *spec.Schema
	for _, m := range raw.AllOf {
		if !significant(m) {
			continue
		}
		if only != nil {
			return nil, false
		}
		only = m
	}
	return only, only != nil
}

// mergeFoldedAttrs applies annotations of the allOf wrapper and its
// annotation-only members to the folded property; later members win.
func mergeFoldedAttrs(p *Property, raw *spec.Schema) {
	for _, m := range raw.AllOf {
		if m.Description != "" && !significant(m) {
			p.Description = m.Description
		}
	}
	p.Nullable = allOfNullable(raw)
	if raw.Description != "" {
		p.Description = raw.Description
	}
	if raw.RequiredFlag != nil && !*raw.RequiredFlag {
		p.Optional = true
	}
}

// allOfNullable walks the allOf members in order; the last one that states
// nullability decides, and the wrapper's own flag overrides them all.
func allOfNullable(raw *spec.Schema) bool {
	nullable := false
	for _, m := range raw.AllOf {
		if m != nil && (m.NullableSet || m.Nullable) {
			nullable = m.Nullable
		}
	}
	if raw.NullableSet || raw.Nullable {
		nullable = raw.Nullable
	}
	return nullable
}

func enumType(values []any) string {
	switch values[0].(type) {
	case string:
		return "string"
	case int, int64, uint64, float64:
		return "number"
	case bool:
		return "boolean"
	}
	return ""
}

// inlineShape reports whether raw needs a synthesized name when it appears
// inside another schema.
func inlineShape(raw *spec.Schema) bool {
	if raw == nil || raw.IsRef() || len(raw.Union()) > 0 {
		return false
	}
	if len(raw.AllOf) > 0 {
		_, folds := foldAllOf(raw)
		return !folds
	}
	return raw.IsObject() || len(raw.Enum) > 0
}
