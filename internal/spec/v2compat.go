package spec

import "strings"

// normalizeV2Operations rewrites Swagger 2.0 operations that kin-openapi
// cannot convert, in place:
//   - several `in: body` parameters are merged into one object body whose
//     properties are the original parameters;
//   - body parameters mixed with formData parameters become formData fields
//     and the operation consumes multipart/form-data.
//
// It reports whether anything changed.
func normalizeV2Operations(tree map[string]any) bool {
    paths, _ := tree["paths"].(map[string]any)
    changed := false
    for _, item := range paths {
        pathItem, _ := item.(map[string]any)
        for key, raw := range pathItem {
            if _, ok := ParseMethod(strings.ToLower(key)); !ok {
                continue
            }
            op, _ := raw.(map[string]any)
            if op == nil {
                continue
            }
            params, _ := op["parameters"].([]any)
            bodies, forms := countParamLocations(params)
            switch {
            case bodies > 0 && forms > 0:
                op["parameters"] = bodyParamsToFormData(params)
                op["consumes"] = appendMissing(op["consumes"], "multipart/form-data")
                changed = true
            case bodies > 1:
                op["parameters"] = mergeBodyParams(params)
                changed = true
            }
        }
    }
    return changed
}

func countParamLocations(params []any) (bodies, forms int) {
    for _, p := range params {
        switch strings.ToLower(stringField(p, "in")) {
        case "body":
            bodies++
        case "formdata":
            forms++
        }
    }
    return bodies, forms
}

func mergeBodyParams(params []any) []any {
    props := map[string]any{}
    var required []any
    rest := make([]any, 0, len(params))
    for _, p := range params {
        pm, _ := p.(map[string]any)
        if !strings.EqualFold(stringField(pm, "in"), "body") {
            rest = append(rest, p)
            continue
        }
        name := paramName(pm)
        schema := paramSchema(pm)
        if schema == nil {
            schema = map[string]any{"type": "string"}
        }
        props[name] = schema
        if req, _ := pm["required"].(bool); req {
            required = append(required, name)
        }
    }
    body := map[string]any{"type": "object", "properties": props}
    if len(required) > 0 {
        body["required"] = required
    }
    merged := map[string]any{"in": "body", "name": "body", "schema": body}
    if len(required) > 0 {
        merged["required"] = true
    }
    return append([]any{merged}, rest...)
}

func bodyParamsToFormData(params []any) []any {
    out := make([]any, 0, len(params))
    for _, p := range params {
        pm, _ := p.(map[string]any)
        if pm == nil {
            continue
        }
        if !strings.EqualFold(stringField(pm, "in"), "body") {
            out = append(out, pm)
            continue
        }
        field := map[string]any{"in": "formData", "name": paramName(pm)}
        if desc := stringField(pm, "description"); desc != "" {
            field["description"] = desc
        }
        if req, ok := pm["required"].(bool); ok {
            field["required"] = req
        }
        // formData cannot carry a referenced object, which degrades to string.
        schema := paramSchema(pm)
        typ := stringField(schema, "type")
        if typ == "" || typ == "object" {
            typ = "string"
        }
        field["type"] = typ
        if items, ok := schema["items"]; ok && typ == "array" {
            field["items"] = items
        }
        if format := stringField(schema, "format"); format != "" {
            field["format"] = format
        }
        out = append(out, field)
    }
    return out
}

// paramSchema returns the body schema, or one synthesized from type/format/items.
func paramSchema(pm map[string]any) map[string]any {
    if s, ok := pm["schema"].(map[string]any); ok {
        return s
    }
    typ := stringField(pm, "type")
    if typ == "" {
        return nil
    }
    s := map[string]any{"type": typ}
    if items, ok := pm["items"]; ok {
        s["items"] = items
    }
    if format := stringField(pm, "format"); format != "" {
        s["format"] = format
    }
    return s
}

func paramName(pm map[string]any) string {
    if name := stringField(pm, "name"); name != "" {
        return name
    }
    return "field"
}

func stringField(v any, key string) string {
    m, _ := v.(map[string]any)
    s, _ := m[key].(string)
    return s
}

func appendMissing(list any, want string) []any {
    items, _ := list.([]any)
    for _, v := range items {
        if s, _ := v.(string); s == want {
            return items
        }
    }
    return append(items, want)
}
