package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/ordered"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Operation is one method on one path with references resolved and path-level
// parameters merged in.
type Operation struct {
	Path        string
	Method      spec.HttpMethod
	OperationID string
	Summary     string
	Description string
	Deprecated  bool
	Tags        []string
	Parameters  []*spec.Parameter
	Responses   *ordered.Map[*spec.Response]

	// Filled by the normalization phase.
	Body           *Body
	Success        *Property // schema of the first 2xx JSON response, nil when absent
	PathParams     []*PathParam
	ParamsSchema   string // synthesized query parameter object, if any
	ParamsRequired bool

	rawBody     *spec.RequestBody
	rawBodyName string // component name of a referenced body
}

// Body is a request body after normalization: a reference, an array of a
// reference, or an inline primitive.
type Body struct {
	Required bool
	Mime     string
	Schema   *Property
}

// PathParam is a positional argument substituted into the URL template.
type PathParam struct {
	Name        string
	Schema      *Property
	Description string
}

// Name returns the operation's base identifier: the Pascal-cased operationId
// when present, else PathName + Pascal(method).
func (op *Operation) Name() string {
	if op.OperationID != "" {
		return naming.TypeName(naming.ToPascalCase(op.OperationID))
	}
	return naming.PathName(op.Path) + naming.ToPascalCase(string(op.Method))
}

// Preprocess flattens the document's paths into operations: component
// references on parameters, request bodies and responses are substituted
// inline, path-level parameters are merged, and the filter is applied.
func Preprocess(doc *spec.Document, filter *spec.Filter) ([]*Operation, error) {
	var ops []*Operation
	for path, item := range doc.Paths.All() {
		if item == nil {
			continue
		}
		shared, err := resolveParams(doc, item.Parameters, path)
		if err != nil {
			return nil, err
		}
		for _, raw := range item.Operations {
			if !filter.Allow(path, raw) {
				continue
			}
			own, err := resolveParams(doc, raw.Parameters, path)
			if err != nil {
				return nil, err
			}
			op := &Operation{
				Path:        path,
				Method:      raw.Method,
				OperationID: raw.OperationID,
				Summary:     raw.Summary,
				Description: raw.Description,
				Deprecated:  raw.Deprecated,
				Tags:        raw.Tags,
				Parameters:  mergeParams(shared, own),
				Responses:   ordered.New[*spec.Response](),
			}
			if raw.RequestBody != nil {
				op.rawBody, op.rawBodyName, err = resolveBody(doc, raw.RequestBody)
				if err != nil {
					return nil, err
				}
			}
			for code, resp := range raw.Responses.All() {
				r, err := resolveResponse(doc, resp)
				if err != nil {
					return nil, err
				}
				op.Responses.Set(code, r)
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func refError(kind, ref string) error {
	return &spec.SpecError{
		Code:        spec.ReferenceError,
		Message:     fmt.Sprintf("resolve: %s reference %q not found", kind, ref),
		JSONPointer: ref,
	}
}

func resolveParams(doc *spec.Document, params []*spec.Parameter, path string) ([]*spec.Parameter, error) {
	out := make([]*spec.Parameter, 0, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		if p.Ref != "" {
			target, ok := doc.Components.Parameters.Get(spec.RefName(p.Ref))
			if !ok {
				return nil, refError("parameter", p.Ref)
			}
			p = target
		}
		if p.Name == "" {
			return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("resolve: parameter without name on %s", path)}
		}
		out = append(out, p)
	}
	return out, nil
}

func paramKey(in, name string) string { return in + ":" + name }

// mergeParams returns path-level parameters first; an operation parameter
// with the same (in, name) replaces the shared one in place.
func mergeParams(shared, own []*spec.Parameter) []*spec.Parameter {
	out := make([]*spec.Parameter, 0, len(shared)+len(own))
	index := map[string]int{}
	for _, p := range shared {
		index[paramKey(p.In, p.Name)] = len(out)
		out = append(out, p)
	}
	for _, p := range own {
		if i, ok := index[paramKey(p.In, p.Name)]; ok {
			out[i] = p
			continue
		}
		index[paramKey(p.In, p.Name)] = len(out)
		out = append(out, p)
	}
	return out
}

func resolveBody(doc *spec.Document, body *spec.RequestBody) (*spec.RequestBody, string, error) {
	if body.Ref == "" {
		return body, "", nil
	}
	name := spec.RefName(body.Ref)
	target, ok := doc.Components.RequestBodies.Get(name)
	if !ok {
		return nil, "", refError("requestBody", body.Ref)
	}
	return target, name, nil
}

func resolveResponse(doc *spec.Document, resp *spec.Response) (*spec.Response, error) {
	if resp == nil || resp.Ref == "" {
		return resp, nil
	}
	target, ok := doc.Components.Responses.Get(spec.RefName(resp.Ref))
	if !ok {
		return nil, refError("response", resp.Ref)
	}
	return target, nil
}

var bodyMimePreference = []string{
	"application/json",
	"multipart/form-data",
	"application/x-www-form-urlencoded",
}

// selectMedia picks the request body media: the preferred types in order,
// then any JSON variant, then the first declared.
func selectMedia(content *ordered.Map[*spec.Media]) (string, *spec.Media) {
	for _, mime := range bodyMimePreference {
		if m, ok := content.Get(mime); ok {
			return mime, m
		}
	}
	for mime, m := range content.All() {
		if strings.Contains(mime, "json") {
			return mime, m
		}
	}
	for mime, m := range content.All() {
		return mime, m
	}
	return "", nil
}

// jsonMedia picks the JSON media of a response, if any.
func jsonMedia(content *ordered.Map[*spec.Media]) *spec.Media {
	if m, ok := content.Get("application/json"); ok {
		return m
	}
	for mime, m := range content.All() {
		if strings.Contains(mime, "json") {
			return m
		}
	}
	return nil
}

// bodies registers request body shapes under the referenced body name or
// PathName + Pascal(method) + "Body". A body component shared by several
// operations is registered once.
func (n *Normalizer) bodies(ops []*Operation) error {
	shared := map[string]*Property{}
	for _, op := range ops {
		if op.rawBody == nil {
			continue
		}
		mime, media := selectMedia(op.rawBody.Content)
		op.Body = &Body{Required: op.rawBody.Required, Mime: mime}
		var raw *spec.Schema
		if media != nil {
			raw = media.Schema
		}
		if op.rawBodyName != "" {
			if p, ok := shared[op.rawBodyName]; ok {
				op.Body.Schema = p
				continue
			}
		}
		name := op.rawBodyName
		if name == "" {
			name = naming.PathName(op.Path) + naming.ToPascalCase(string(op.Method)) + "Body"
		}
		p, err := n.bodySchema(name, raw)
		if err != nil {
			return err
		}
		op.Body.Schema = p
		if op.rawBodyName != "" {
			shared[op.rawBodyName] = p
		}
	}
	return nil
}

func (n *Normalizer) bodySchema(name string, raw *spec.Schema) (*Property, error) {
	switch {
	case raw.IsArray() && inlineShape(raw.Items):
		if _, err := n.Register(name, raw.Items); err != nil {
			return nil, err
		}
		return &Property{Type: "array", Items: &Property{Ref: name}}, nil
	case inlineShape(raw):
		if _, err := n.Register(name, raw); err != nil {
			return nil, err
		}
		return &Property{Ref: name}, nil
	default:
		return Describe(raw), nil
	}
}

// successResponse records the JSON schema of the first 2xx response.
func successResponse(op *Operation) {
	for code, resp := range op.Responses.All() {
		if !strings.HasPrefix(code, "2") || resp == nil {
			continue
		}
		if media := jsonMedia(resp.Content); media != nil && media.Schema != nil {
			op.Success = Describe(media.Schema)
		}
		return
	}
}

var pathToken = regexp.MustCompile(`\{([^{}]+)\}`)

// PathTokens returns the parameter names of a URL template in order.
func PathTokens(path string) []string {
	var names []string
	for _, m := range pathToken.FindAllStringSubmatch(path, -1) {
		names = append(names, m[1])
	}
	return names
}
