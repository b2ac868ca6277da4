package tsemitter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/resolve"
)

// EmitRequests renders one exported request factory per operation, in
// document order, separated by one blank line.
func EmitRequests(m *resolve.Model, helper string) string {
	if helper == "" {
		helper = DefaultRequestHelper
	}
	blocks := make([]string, 0, len(m.Operations))
	for _, op := range m.Operations {
		blocks = append(blocks, requestFunc(m.Registry, op, helper))
	}
	return strings.Join(blocks, "\n\n")
}

// FuncName returns the exported name of the request factory for op.
func FuncName(op *resolve.Operation) string {
	if op.OperationID != "" {
		return naming.FuncName(op.OperationID)
	}
	return naming.PathName(op.Path) + naming.ToPascalCase(string(op.Method)) + "Request"
}

type argument struct {
	name     string
	typ      string
	optional bool
}

func requestFunc(reg *resolve.Registry, op *resolve.Operation, helper string) string {
	var args []argument
	var forward []string
	for _, pp := range op.PathParams {
		args = append(args, argument{name: argName(pp.Name, helper), typ: TypeOf(pp.Schema)})
	}
	if op.Body != nil {
		args = append(args, argument{name: "body", typ: TypeOf(op.Body.Schema), optional: !op.Body.Required})
		forward = append(forward, "body")
	}
	if op.ParamsSchema != "" {
		args = append(args, argument{name: "params", typ: naming.TypeName(op.ParamsSchema), optional: !op.ParamsRequired})
		forward = append(forward, "params")
	}
	args = append(args, argument{name: "options", typ: "any", optional: true})

	var b strings.Builder
	if op.Deprecated {
		b.WriteString("/** @deprecated */\n")
	}
	if summary := flatten(op.Summary); summary != "" {
		b.WriteString("// ")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "export const %s = (%s) => %s<%s>(%s, { %s })",
		FuncName(op),
		renderArgs(args),
		helper,
		responseType(reg, op),
		urlExpr(op.Path, helper),
		callOptions(op, forward),
	)
	return b.String()
}

// renderArgs writes the argument list. An optional argument followed by a
// required one cannot use `?`, so it is typed `T | undefined` instead.
func renderArgs(args []argument) string {
	parts := make([]string, len(args))
	requiredAfter := false
	for i := len(args) - 1; i >= 0; i-- {
		a := args[i]
		switch {
		case !a.optional:
			parts[i] = a.name + ": " + a.typ
			requiredAfter = true
		case requiredAfter:
			parts[i] = a.name + ": " + a.typ + " | undefined"
		default:
			parts[i] = a.name + "?: " + a.typ
		}
	}
	return strings.Join(parts, ", ")
}

func callOptions(op *resolve.Operation, forward []string) string {
	parts := []string{"method: '" + strings.ToUpper(string(op.Method)) + "'"}
	parts = append(parts, forward...)
	parts = append(parts, "...options")
	return strings.Join(parts, ", ")
}

var templateToken = regexp.MustCompile(`\{([^{}]+)\}`)

// urlExpr turns a path template into a string literal, interpolating path
// parameters when the template has any.
func urlExpr(path, helper string) string {
	if !templateToken.MatchString(path) {
		return quote(path)
	}
	escaped := strings.NewReplacer("`", "\\`", `\`, `\\`).Replace(path)
	return "`" + templateToken.ReplaceAllStringFunc(escaped, func(tok string) string {
		return "${" + argName(tok[1:len(tok)-1], helper) + "}"
	}) + "`"
}

// argName is the arrow-function parameter bound to a path parameter. Reserved
// words and names the factory already uses get a "Param" suffix.
func argName(param, helper string) string {
	name := naming.FuncName(naming.ToCamelCase(param))
	switch {
	case naming.IsReserved(name), name == helper,
		name == "body", name == "params", name == "options":
		return name + "Param"
	}
	return name
}

// responseType picks the type argument for the request helper from the first
// 2xx JSON response. A named array resolves to its element type.
func responseType(reg *resolve.Registry, op *resolve.Operation) string {
	p := op.Success
	if p == nil {
		return "any"
	}
	if p.Ref == "" || len(p.OneOf) > 0 {
		return TypeOf(p)
	}
	s, ok := reg.Get(p.Ref)
	if !ok || s.Kind != resolve.KindArray {
		return naming.TypeName(p.Ref)
	}
	if s.ChildType != "" {
		return naming.TypeName(s.ChildType) + "[]"
	}
	return arrayOf(s.Items)
}
