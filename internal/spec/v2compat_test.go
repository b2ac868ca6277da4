package spec

import (
    "testing"

    "gopkg.in/yaml.v3"
)

func v2Tree(t *testing.T, src string) map[string]any {
    t.Helper()
    var generic any
    if err := yaml.Unmarshal([]byte(src), &generic); err != nil {
        t.Fatalf("yaml: %v", err)
    }
    tree, ok := jsonCompatible(generic).(map[string]any)
    if !ok {
        t.Fatalf("expected mapping root, got %T", generic)
    }
    return tree
}

func operationParams(t *testing.T, tree map[string]any, path, method string) []any {
    t.Helper()
    op := tree["paths"].(map[string]any)[path].(map[string]any)[method].(map[string]any)
    params, _ := op["parameters"].([]any)
    return params
}

func TestV2Compat_MultipleBodyMerged(t *testing.T) {
    t.Parallel()
    tree := v2Tree(t, `swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /x:
    post:
      parameters:
      - in: query
        name: q
        type: string
      - in: body
        name: a
        required: true
        schema: { type: string }
      - in: body
        name: b
        schema: { type: integer }
      responses: { 200: { description: ok } }
`)
    if !normalizeV2Operations(tree) {
        t.Fatalf("expected changes")
    }
    params := operationParams(t, tree, "/x", "post")
    if len(params) != 2 {
        t.Fatalf("expected merged body plus query param, got %d params", len(params))
    }
    body := params[0].(map[string]any)
    if body["in"] != "body" || body["name"] != "body" || body["required"] != true {
        t.Fatalf("unexpected merged body: %#v", body)
    }
    schema := body["schema"].(map[string]any)
    props := schema["properties"].(map[string]any)
    if _, ok := props["a"]; !ok {
        t.Fatalf("expected property a in merged schema: %#v", schema)
    }
    if _, ok := props["b"]; !ok {
        t.Fatalf("expected property b in merged schema: %#v", schema)
    }
    if req := schema["required"].([]any); len(req) != 1 || req[0] != "a" {
        t.Fatalf("expected required [a], got %#v", req)
    }
    if params[1].(map[string]any)["name"] != "q" {
        t.Fatalf("expected query parameter to follow the merged body")
    }
}

func TestV2Compat_BodyAndFormData_ToFormData(t *testing.T) {
    t.Parallel()
    tree := v2Tree(t, `swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /upload:
    post:
      parameters:
      - in: body
        name: desc
        schema: { $ref: '#/definitions/Desc' }
      - in: formData
        name: file
        type: file
        required: true
      responses: { '200': { description: ok } }
`)
    if !normalizeV2Operations(tree) {
        t.Fatalf("expected changes")
    }
    for _, p := range operationParams(t, tree, "/upload", "post") {
        pm := p.(map[string]any)
        if pm["in"] == "body" {
            t.Fatalf("expected no body params after conversion, got %#v", pm)
        }
        if pm["name"] == "desc" && pm["type"] != "string" {
            t.Fatalf("referenced body should degrade to string, got %#v", pm)
        }
    }
    op := tree["paths"].(map[string]any)["/upload"].(map[string]any)["post"].(map[string]any)
    if consumes := op["consumes"].([]any); len(consumes) != 1 || consumes[0] != "multipart/form-data" {
        t.Fatalf("expected consumes multipart/form-data, got %#v", op["consumes"])
    }
}

func TestV2Compat_SingleBodyUntouched(t *testing.T) {
    t.Parallel()
    tree := v2Tree(t, `swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /x:
    parameters: []
    put:
      parameters:
      - in: body
        name: body
        schema: { type: object }
      responses: { '200': { description: ok } }
`)
    if normalizeV2Operations(tree) {
        t.Fatalf("expected no changes")
    }
}
