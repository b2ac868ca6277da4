package spec

import (
    "fmt"
    "strings"

    "github.com/mark3labs/swagger2ts/internal/ordered"
    "gopkg.in/yaml.v3"
)

// decoder fills the document model from a yaml.Node tree. Working on nodes
// rather than map[string]any keeps mapping order, which decides the order of
// generated declarations and properties.
type decoder struct {
    location string
}

// node pairs a yaml node with its JSON pointer for error reporting.
type node struct {
    n   *yaml.Node
    ptr string
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func deref(n *yaml.Node) *yaml.Node {
    for n != nil && n.Kind == yaml.AliasNode {
        n = n.Alias
    }
    return n
}

func isNull(n *yaml.Node) bool {
    return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func (nd node) get(key string) (node, bool) {
    if nd.n == nil || nd.n.Kind != yaml.MappingNode {
        return node{}, false
    }
    for i := 0; i+1 < len(nd.n.Content); i += 2 {
        if nd.n.Content[i].Value == key {
            v := deref(nd.n.Content[i+1])
            if isNull(v) {
                return node{}, false
            }
            return node{n: v, ptr: nd.ptr + "/" + pointerEscaper.Replace(key)}, true
        }
    }
    return node{}, false
}

func (d *decoder) errorf(ptr, format string, args ...any) error {
    return &SpecError{
        Code:        ParseError,
        Message:     fmt.Sprintf(format, args...),
        Location:    d.location,
        JSONPointer: ptr,
    }
}

func (d *decoder) pairs(nd node, fn func(key string, v node) error) error {
    if nd.n.Kind != yaml.MappingNode {
        return d.errorf(nd.ptr, "expected a mapping at %s", nd.ptr)
    }
    for i := 0; i+1 < len(nd.n.Content); i += 2 {
        key := nd.n.Content[i].Value
        v := deref(nd.n.Content[i+1])
        if err := fn(key, node{n: v, ptr: nd.ptr + "/" + pointerEscaper.Replace(key)}); err != nil {
            return err
        }
    }
    return nil
}

func (d *decoder) items(nd node, fn func(v node) error) error {
    if nd.n.Kind != yaml.SequenceNode {
        return d.errorf(nd.ptr, "expected a sequence at %s", nd.ptr)
    }
    for i, item := range nd.n.Content {
        if err := fn(node{n: deref(item), ptr: fmt.Sprintf("%s/%d", nd.ptr, i)}); err != nil {
            return err
        }
    }
    return nil
}

func (d *decoder) str(nd node, key string) (string, error) {
    v, ok := nd.get(key)
    if !ok {
        return "", nil
    }
    if v.n.Kind != yaml.ScalarNode {
        return "", d.errorf(v.ptr, "expected a scalar at %s", v.ptr)
    }
    return strings.TrimSpace(v.n.Value), nil
}

func (d *decoder) boolean(nd node, key string) (value, present bool, err error) {
    v, ok := nd.get(key)
    if !ok {
        return false, false, nil
    }
    if err := v.n.Decode(&value); err != nil {
        return false, false, d.errorf(v.ptr, "expected a boolean at %s", v.ptr)
    }
    return value, true, nil
}

func (d *decoder) strs(nd node, key string) ([]string, error) {
    v, ok := nd.get(key)
    if !ok {
        return nil, nil
    }
    var out []string
    err := d.items(v, func(item node) error {
        if item.n.Kind != yaml.ScalarNode {
            return d.errorf(item.ptr, "expected a scalar at %s", item.ptr)
        }
        out = append(out, item.n.Value)
        return nil
    })
    return out, err
}

func decodeDocument(root *yaml.Node, location string) (*Document, error) {
    d := &decoder{location: location}
    n := deref(root)
    if n != nil && n.Kind == yaml.DocumentNode {
        if len(n.Content) == 0 {
            return nil, d.errorf("#", "document is empty")
        }
        n = deref(n.Content[0])
    }
    if n == nil || n.Kind != yaml.MappingNode {
        return nil, d.errorf("#", "document root must be a mapping")
    }
    top := node{n: n, ptr: "#"}

    doc := &Document{Paths: ordered.New[*PathItem]()}
    var err error
    if doc.OpenAPI, err = d.str(top, "openapi"); err != nil {
        return nil, err
    }
    if info, ok := top.get("info"); ok {
        if doc.Info.Title, err = d.str(info, "title"); err != nil {
            return nil, err
        }
        if doc.Info.Version, err = d.str(info, "version"); err != nil {
            return nil, err
        }
        if doc.Info.Description, err = d.str(info, "description"); err != nil {
            return nil, err
        }
    }
    if paths, ok := top.get("paths"); ok {
        err := d.pairs(paths, func(path string, v node) error {
            item, err := d.pathItem(v)
            if err != nil {
                return err
            }
            doc.Paths.Set(path, item)
            return nil
        })
        if err != nil {
            return nil, err
        }
    }
    if comps, ok := top.get("components"); ok {
        if err := d.components(comps, &doc.Components); err != nil {
            return nil, err
        }
    }
    return doc, nil
}

func (d *decoder) components(nd node, c *Components) error {
    c.Schemas = ordered.New[*Schema]()
    c.Parameters = ordered.New[*Parameter]()
    c.RequestBodies = ordered.New[*RequestBody]()
    c.Responses = ordered.New[*Response]()

    if v, ok := nd.get("schemas"); ok {
        err := d.pairs(v, func(name string, sv node) error {
            s, err := d.schema(sv)
            if err != nil {
                return err
            }
            if s == nil {
                s = &Schema{}
            }
            c.Schemas.Set(name, s)
            return nil
        })
        if err != nil {
            return err
        }
    }
    if v, ok := nd.get("parameters"); ok {
        err := d.pairs(v, func(name string, pv node) error {
            p, err := d.parameter(pv)
            if err != nil {
                return err
            }
            c.Parameters.Set(name, p)
            return nil
        })
        if err != nil {
            return err
        }
    }
    if v, ok := nd.get("requestBodies"); ok {
        err := d.pairs(v, func(name string, bv node) error {
            b, err := d.requestBody(bv)
            if err != nil {
                return err
            }
            c.RequestBodies.Set(name, b)
            return nil
        })
        if err != nil {
            return err
        }
    }
    if v, ok := nd.get("responses"); ok {
        err := d.pairs(v, func(name string, rv node) error {
            r, err := d.response(rv)
            if err != nil {
                return err
            }
            c.Responses.Set(name, r)
            return nil
        })
        if err != nil {
            return err
        }
    }
    return nil
}

func (d *decoder) pathItem(nd node) (*PathItem, error) {
    item := &PathItem{}
    err := d.pairs(nd, func(key string, v node) error {
        if key == "parameters" {
            params, err := d.parameters(v)
            item.Parameters = params
            return err
        }
        method, ok := ParseMethod(strings.ToLower(key))
        if !ok {
            return nil
        }
        op, err := d.operation(v)
        if err != nil {
            return err
        }
        op.Method = method
        item.Operations = append(item.Operations, op)
        return nil
    })
    return item, err
}

func (d *decoder) operation(nd node) (*Operation, error) {
    op := &Operation{Responses: ordered.New[*Response]()}
    var err error
    if op.OperationID, err = d.str(nd, "operationId"); err != nil {
        return nil, err
    }
    if op.Summary, err = d.str(nd, "summary"); err != nil {
        return nil, err
    }
    if op.Description, err = d.str(nd, "description"); err != nil {
        return nil, err
    }
    if op.Deprecated, _, err = d.boolean(nd, "deprecated"); err != nil {
        return nil, err
    }
    if op.Tags, err = d.strs(nd, "tags"); err != nil {
        return nil, err
    }
    if v, ok := nd.get("parameters"); ok {
        if op.Parameters, err = d.parameters(v); err != nil {
            return nil, err
        }
    }
    if v, ok := nd.get("requestBody"); ok {
        if op.RequestBody, err = d.requestBody(v); err != nil {
            return nil, err
        }
    }
    if v, ok := nd.get("responses"); ok {
        err := d.pairs(v, func(code string, rv node) error {
            r, err := d.response(rv)
            if err != nil {
                return err
            }
            op.Responses.Set(code, r)
            return nil
        })
        if err != nil {
            return nil, err
        }
    }
    return op, nil
}

func (d *decoder) parameters(nd node) ([]*Parameter, error) {
    var out []*Parameter
    err := d.items(nd, func(v node) error {
        p, err := d.parameter(v)
        if err != nil {
            return err
        }
        out = append(out, p)
        return nil
    })
    return out, err
}

func (d *decoder) parameter(nd node) (*Parameter, error) {
    if nd.n.Kind != yaml.MappingNode {
        return nil, d.errorf(nd.ptr, "parameter must be a mapping at %s", nd.ptr)
    }
    p := &Parameter{}
    var err error
    if p.Ref, err = d.str(nd, "$ref"); err != nil {
        return nil, err
    }
    if p.Name, err = d.str(nd, "name"); err != nil {
        return nil, err
    }
    if p.In, err = d.str(nd, "in"); err != nil {
        return nil, err
    }
    if p.Style, err = d.str(nd, "style"); err != nil {
        return nil, err
    }
    if p.Description, err = d.str(nd, "description"); err != nil {
        return nil, err
    }
    if p.Required, _, err = d.boolean(nd, "required"); err != nil {
        return nil, err
    }
    if v, ok := nd.get("schema"); ok {
        if p.Schema, err = d.schema(v); err != nil {
            return nil, err
        }
    } else if _, typed := nd.get("type"); typed {
        // Swagger 2.0 style: the type lives on the parameter itself.
        if p.Schema, err = d.schema(nd); err != nil {
            return nil, err
        }
        p.Schema.RequiredFlag = nil
        p.Schema.Description = ""
    }
    return p, nil
}

func (d *decoder) requestBody(nd node) (*RequestBody, error) {
    if nd.n.Kind != yaml.MappingNode {
        return nil, d.errorf(nd.ptr, "requestBody must be a mapping at %s", nd.ptr)
    }
    b := &RequestBody{}
    var err error
    if b.Ref, err = d.str(nd, "$ref"); err != nil {
        return nil, err
    }
    if b.Description, err = d.str(nd, "description"); err != nil {
        return nil, err
    }
    if b.Required, _, err = d.boolean(nd, "required"); err != nil {
        return nil, err
    }
    if b.Content, err = d.content(nd); err != nil {
        return nil, err
    }
    return b, nil
}

func (d *decoder) response(nd node) (*Response, error) {
    if nd.n.Kind != yaml.MappingNode {
        return nil, d.errorf(nd.ptr, "response must be a mapping at %s", nd.ptr)
    }
    r := &Response{}
    var err error
    if r.Ref, err = d.str(nd, "$ref"); err != nil {
        return nil, err
    }
    if r.Description, err = d.str(nd, "description"); err != nil {
        return nil, err
    }
    if r.Content, err = d.content(nd); err != nil {
        return nil, err
    }
    return r, nil
}

func (d *decoder) content(nd node) (*ordered.Map[*Media], error) {
    out := ordered.New[*Media]()
    v, ok := nd.get("content")
    if !ok {
        return out, nil
    }
    err := d.pairs(v, func(mime string, mv node) error {
        m := &Media{}
        if sv, ok := mv.get("schema"); ok {
            s, err := d.schema(sv)
            if err != nil {
                return err
            }
            m.Schema = s
        }
        out.Set(mime, m)
        return nil
    })
    return out, err
}

func (d *decoder) schema(nd node) (*Schema, error) {
    if isNull(nd.n) {
        return nil, nil
    }
    if nd.n.Kind != yaml.MappingNode {
        return nil, d.errorf(nd.ptr, "schema must be a mapping at %s", nd.ptr)
    }
    s := &Schema{}
    var err error
    if s.Ref, err = d.str(nd, "$ref"); err != nil {
        return nil, err
    }
    if v, ok := nd.get("type"); ok {
        switch v.n.Kind {
        case yaml.ScalarNode:
            s.Type = v.n.Value
        case yaml.SequenceNode:
            // OpenAPI 3.1: type: [string, "null"]
            for _, t := range v.n.Content {
                if t.Value == "null" {
                    s.Nullable = true
                    s.NullableSet = true
                } else if s.Type == "" {
                    s.Type = t.Value
                }
            }
        default:
            return nil, d.errorf(v.ptr, "expected a scalar or sequence at %s", v.ptr)
        }
    }
    if s.Format, err = d.str(nd, "format"); err != nil {
        return nil, err
    }
    if s.Description, err = d.str(nd, "description"); err != nil {
        return nil, err
    }
    for _, key := range []string{"nullable", "x-nullable"} {
        nullable, present, err := d.boolean(nd, key)
        if err != nil {
            return nil, err
        }
        if present {
            s.Nullable = s.Nullable || nullable
            s.NullableSet = true
        }
    }
    if v, ok := nd.get("required"); ok {
        switch v.n.Kind {
        case yaml.SequenceNode:
            if s.Required, err = d.strs(nd, "required"); err != nil {
                return nil, err
            }
        case yaml.ScalarNode:
            flag, _, err := d.boolean(nd, "required")
            if err != nil {
                return nil, err
            }
            s.RequiredFlag = &flag
        }
    }
    if v, ok := nd.get("properties"); ok {
        s.Properties = ordered.New[*Schema]()
        err := d.pairs(v, func(name string, pv node) error {
            ps, err := d.schema(pv)
            if err != nil {
                return err
            }
            if ps == nil {
                ps = &Schema{}
            }
            s.Properties.Set(name, ps)
            return nil
        })
        if err != nil {
            return nil, err
        }
    }
    if v, ok := nd.get("items"); ok {
        if v.n.Kind == yaml.SequenceNode {
            // Tuple form: the first element stands for the array element type.
            if len(v.n.Content) > 0 {
                s.Items, err = d.schema(node{n: deref(v.n.Content[0]), ptr: v.ptr + "/0"})
            }
        } else {
            s.Items, err = d.schema(v)
        }
        if err != nil {
            return nil, err
        }
    }
    if s.AllOf, err = d.schemaList(nd, "allOf"); err != nil {
        return nil, err
    }
    if s.OneOf, err = d.schemaList(nd, "oneOf"); err != nil {
        return nil, err
    }
    if s.AnyOf, err = d.schemaList(nd, "anyOf"); err != nil {
        return nil, err
    }
    if v, ok := nd.get("enum"); ok {
        err := d.items(v, func(item node) error {
            var value any
            if err := item.n.Decode(&value); err != nil {
                return d.errorf(item.ptr, "invalid enum value at %s: %v", item.ptr, err)
            }
            if value != nil {
                s.Enum = append(s.Enum, value)
            }
            return nil
        })
        if err != nil {
            return nil, err
        }
    }
    return s, nil
}

func (d *decoder) schemaList(nd node, key string) ([]*Schema, error) {
    v, ok := nd.get(key)
    if !ok {
        return nil, nil
    }
    var out []*Schema
    err := d.items(v, func(item node) error {
        s, err := d.schema(item)
        if err != nil {
            return err
        }
        if s != nil {
            out = append(out, s)
        }
        return nil
    })
    return out, err
}
