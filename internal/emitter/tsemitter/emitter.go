// Package tsemitter renders a resolved model as TypeScript: one declaration
// per registry entry followed by one request factory per operation.
package tsemitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/resolve"
)

// DefaultRequestHelper is the ambient generic function the generated
// factories call.
const DefaultRequestHelper = "request"

// Options controls how the TypeScript emitter renders a model.
type Options struct {
	RequestHelper string // name of the generic request function; defaults to "request"
	ImportFrom    string // when set, the helper is imported from this module
}

// Result carries the rendered text and what it contains.
type Result struct {
	Text         string
	Declarations int
	Functions    int
}

// Emit renders declarations, then request functions, separated by one blank
// line and terminated by a newline. An empty model renders as empty text.
func Emit(ctx context.Context, m *resolve.Model, opts Options) (*Result, error) {
	if m == nil || m.Registry == nil {
		return nil, fmt.Errorf("tsemitter: nil model")
	}
	helper := strings.TrimSpace(opts.RequestHelper)
	if helper == "" {
		helper = DefaultRequestHelper
	}
	if !naming.IsIdentifier(helper) {
		return nil, fmt.Errorf("tsemitter: request helper %q is not a valid identifier", helper)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sections []string
	if from := strings.TrimSpace(opts.ImportFrom); from != "" {
		sections = append(sections, fmt.Sprintf("import { %s } from %s", helper, quote(from)))
	}
	if decls := EmitDeclarations(m.Registry); decls != "" {
		sections = append(sections, decls)
	}
	if funcs := EmitRequests(m, helper); funcs != "" {
		sections = append(sections, funcs)
	}

	res := &Result{Declarations: m.Registry.Len(), Functions: len(m.Operations)}
	if len(sections) > 0 {
		res.Text = strings.Join(sections, "\n\n") + "\n"
	}
	return res, nil
}
