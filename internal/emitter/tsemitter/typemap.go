package tsemitter

import (
	"slices"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/resolve"
)

// TypeOf maps a normalized property to a TypeScript type expression. Union
// members win over a reference, a reference wins over the type tag.
func TypeOf(p *resolve.Property) string {
	if p == nil {
		return "any"
	}
	if len(p.OneOf) > 0 {
		var members []string
		for _, m := range p.OneOf {
			if t := TypeOf(m); !slices.Contains(members, t) {
				members = append(members, t)
			}
		}
		return strings.Join(members, " | ")
	}
	if p.Ref != "" {
		return naming.TypeName(p.Ref)
	}
	switch p.Type {
	case "":
		return "any"
	case "string":
		if p.Format == "binary" {
			return "Blob"
		}
		return "string"
	case "array":
		return arrayOf(p.Items)
	case "integer":
		return "number"
	default:
		return p.Type
	}
}

func arrayOf(items *resolve.Property) string {
	t := TypeOf(items)
	if strings.Contains(t, " | ") {
		return "Array<" + t + ">"
	}
	return t + "[]"
}
