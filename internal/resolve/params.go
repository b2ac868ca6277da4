package resolve

import (
	"slices"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/ordered"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

const deepObject = "deepObject"

// FlattenParams expands parameters whose schema is an inline object with
// properties into one sibling parameter per property. Children inherit the
// location and style; they are required when the parent is, unless the object
// lists its own required fields. deepObject parameters are kept whole.
func FlattenParams(params []*spec.Parameter) []*spec.Parameter {
	out := make([]*spec.Parameter, 0, len(params))
	for _, p := range params {
		if p.Style == deepObject || !p.Schema.IsObject() || p.Schema.Properties.Len() == 0 {
			out = append(out, p)
			continue
		}
		children := make([]*spec.Parameter, 0, p.Schema.Properties.Len())
		for name, child := range p.Schema.Properties.All() {
			required := p.Required
			if len(p.Schema.Required) > 0 {
				required = required && slices.Contains(p.Schema.Required, name)
			}
			var desc string
			if child != nil {
				desc = child.Description
			}
			children = append(children, &spec.Parameter{
				Name:        name,
				In:          p.In,
				Required:    required,
				Style:       p.Style,
				Description: desc,
				Schema:      child,
			})
		}
		out = append(out, FlattenParams(children)...)
	}
	return out
}

// ExtractParams splits an operation's parameters: path parameters become
// positional arguments, query parameters are gathered into one synthesized
// PathName + Pascal(method) + "Params" object. Header and cookie parameters
// are dropped.
func (n *Normalizer) ExtractParams(op *Operation) error {
	flat := FlattenParams(op.Parameters)

	declared := map[string]bool{}
	query := &spec.Schema{Type: "object", Properties: ordered.New[*spec.Schema]()}
	for _, p := range flat {
		switch p.In {
		case "path":
			declared[p.Name] = true
			op.PathParams = append(op.PathParams, &PathParam{
				Name:        p.Name,
				Schema:      Describe(p.Schema),
				Description: p.Description,
			})
		case "query":
			schema, err := n.queryField(op, p)
			if err != nil {
				return err
			}
			query.Properties.Set(p.Name, schema)
			if p.Required && !slices.Contains(query.Required, p.Name) {
				query.Required = append(query.Required, p.Name)
			}
		}
	}
	// A template token without a declaration still needs an argument.
	for _, token := range PathTokens(op.Path) {
		if !declared[token] {
			declared[token] = true
			op.PathParams = append(op.PathParams, &PathParam{Name: token, Schema: &Property{Type: "string"}})
		}
	}

	if query.Properties.Len() == 0 {
		return nil
	}
	name := naming.PathName(op.Path) + naming.ToPascalCase(string(op.Method)) + "Params"
	if _, err := n.Register(name, query); err != nil {
		return err
	}
	op.ParamsSchema = name
	op.ParamsRequired = len(query.Required) > 0
	return nil
}

// queryField returns the schema used for p inside the parameter object. A
// deepObject parameter with properties gets its own declaration named
// OperationName + Pascal(parameter).
func (n *Normalizer) queryField(op *Operation, p *spec.Parameter) (*spec.Schema, error) {
	schema := p.Schema
	if schema == nil {
		schema = &spec.Schema{}
	}
	if p.Style == deepObject && schema.IsObject() && schema.Properties.Len() > 0 {
		name := op.Name() + naming.ToPascalCase(p.Name)
		if _, err := n.Register(name, schema); err != nil {
			return nil, err
		}
		return &spec.Schema{Ref: name, Description: p.Description}, nil
	}
	if schema.Description == "" && p.Description != "" {
		withDesc := *schema
		withDesc.Description = p.Description
		schema = &withDesc
	}
	return schema, nil
}
