package spec

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "os"
    "path/filepath"
    "slices"
    "strings"
    "time"

    openapi2 "github.com/getkin/kin-openapi/openapi2"
    "github.com/getkin/kin-openapi/openapi2conv"
    "github.com/getkin/kin-openapi/openapi3"
    "gopkg.in/yaml.v3"

    "github.com/mark3labs/swagger2ts/internal/ordered"
)

// ErrorCode categorizes errors for clearer handling and messaging.
type ErrorCode string

const (
    InputError      ErrorCode = "InputError"
    NetworkError    ErrorCode = "NetworkError"
    ParseError      ErrorCode = "ParseError"
    ConversionError ErrorCode = "ConversionError"
    ReferenceError  ErrorCode = "ReferenceError"
    CollisionError  ErrorCode = "CollisionError"
)

// Sentinels matched by errors.Is against a *SpecError.
var (
    ErrReference = errors.New("unresolved reference")
    ErrCircular  = errors.New("circular reference")
    ErrCollision = errors.New("schema name collision")
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
    Code        ErrorCode
    Message     string
    Location    string // file path or URL
    JSONPointer string // e.g. "#/paths/~1pets/get"
    Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

func (e *SpecError) Is(target error) bool {
    switch target {
    case ErrReference:
        return e.Code == ReferenceError
    case ErrCollision:
        return e.Code == CollisionError
    }
    return false
}

// Settings configures loader behavior.
type Settings struct {
    // HTTPTimeout bounds each HTTP request.
    HTTPTimeout time.Duration
    // MaxRetries for transient HTTP failures (>=500, 429, or network errors).
    MaxRetries int
    // BackoffBase is the base delay for exponential backoff.
    BackoffBase time.Duration
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
    return Settings{
        HTTPTimeout: 10 * time.Second,
        MaxRetries:  3,
        BackoffBase: 200 * time.Millisecond,
    }
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// Load reads an OpenAPI description from a filesystem path or an http/https
// URL and decodes it. Swagger 2.0 input is converted to OpenAPI 3 first.
// file:// URLs are rejected; pass the path instead.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
    if strings.TrimSpace(input) == "" {
        return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
    }

    settings := DefaultSettings()
    for _, opt := range opts {
        opt(&settings)
    }

    // Classify input as URL or file path.
    u, uerr := url.Parse(input)
    isURL := uerr == nil && u.Scheme != "" && (u.Host != "" || strings.EqualFold(u.Scheme, "file"))

    if isURL {
        scheme := strings.ToLower(u.Scheme)
        if scheme == "file" {
            return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are not supported, pass a path", Location: input}
        }
        if scheme != "http" && scheme != "https" {
            return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
        }
        raw, err := fetchWithRetry(ctx, input, settings)
        if err != nil {
            return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
        }
        return Parse(raw, input)
    }

    abs, err := filepath.Abs(input)
    if err != nil {
        return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
    }
    raw, err := os.ReadFile(abs)
    if err != nil {
        return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
    }
    return Parse(raw, abs)
}

// ReadAll decodes a description from r, e.g. standard input.
func ReadAll(r io.Reader, location string) (*Document, error) {
    raw, err := io.ReadAll(r)
    if err != nil {
        return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read %s: %v", location, err), Location: location, Cause: err}
    }
    return Parse(raw, location)
}

// Parse decodes YAML or JSON bytes. location is only used in error messages.
func Parse(data []byte, location string) (*Document, error) {
    if len(bytes.TrimSpace(data)) == 0 {
        return nil, &SpecError{Code: InputError, Message: "spec: document is empty", Location: location}
    }
    var root yaml.Node
    if err := yaml.Unmarshal(data, &root); err != nil {
        return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse spec: %v", err), Location: location, Cause: err}
    }

    switch detectSpecVersion(&root) {
    case 3:
        return decodeDocument(&root, location)
    case 2:
        converted, err := convertV2ToV3(&root)
        if err != nil {
            return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
        }
        var v3root yaml.Node
        if err := yaml.Unmarshal(converted, &v3root); err != nil {
            return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
        }
        doc, err := decodeDocument(&v3root, location)
        if err != nil {
            return nil, err
        }
        restoreV2Order(doc, &root)
        return doc, nil
    default:
        return nil, &SpecError{Code: ParseError, Message: "spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')", Location: location, JSONPointer: "#"}
    }
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else 0.
func detectSpecVersion(root *yaml.Node) int {
    top := node{n: deref(root)}
    if top.n != nil && top.n.Kind == yaml.DocumentNode && len(top.n.Content) > 0 {
        top.n = deref(top.n.Content[0])
    }
    if v, ok := top.get("openapi"); ok && strings.HasPrefix(strings.TrimSpace(v.n.Value), "3.") {
        return 3
    }
    if v, ok := top.get("swagger"); ok && strings.HasPrefix(strings.TrimSpace(v.n.Value), "2.") {
        return 2
    }
    return 0
}

// convertV2ToV3 runs kin-openapi's converter and returns the v3 document as
// JSON. kin-openapi reads through encoding/json, so the YAML tree is first
// turned into JSON-compatible values.
func convertV2ToV3(root *yaml.Node) ([]byte, error) {
    var generic any
    if err := root.Decode(&generic); err != nil {
        return nil, err
    }
    tree, ok := jsonCompatible(generic).(map[string]any)
    if !ok {
        return nil, errors.New("document root must be a mapping")
    }
    if _, ok := tree["info"]; !ok {
        return nil, errors.New("swagger 2.0 document has no info section")
    }
    normalizeV2Operations(tree)

    raw, err := json.Marshal(tree)
    if err != nil {
        return nil, err
    }
    var v2 openapi2.T
    if err := json.Unmarshal(raw, &v2); err != nil {
        return nil, err
    }
    var v3 *openapi3.T
    if v3, err = openapi2conv.ToV3(&v2); err != nil {
        return nil, err
    }
    return json.Marshal(v3)
}

func jsonCompatible(v any) any {
    switch t := v.(type) {
    case map[string]any:
        for k, item := range t {
            t[k] = jsonCompatible(item)
        }
        return t
    case map[any]any:
        out := make(map[string]any, len(t))
        for k, item := range t {
            out[fmt.Sprint(k)] = jsonCompatible(item)
        }
        return out
    case []any:
        for i, item := range t {
            t[i] = jsonCompatible(item)
        }
        return t
    default:
        return v
    }
}

// restoreV2Order puts paths and schemas back in the order the Swagger 2.0
// source declared them; the JSON round trip through kin-openapi sorts them.
func restoreV2Order(doc *Document, root *yaml.Node) {
    top := node{n: deref(root)}
    if top.n.Kind == yaml.DocumentNode && len(top.n.Content) > 0 {
        top.n = deref(top.n.Content[0])
    }
    if paths, ok := top.get("paths"); ok {
        doc.Paths = reorder(doc.Paths, mappingKeys(paths.n))
        for path, item := range doc.Paths.All() {
            if src, ok := paths.get(path); ok {
                restoreV2OperationOrder(item, src)
            }
        }
    }
    if defs, ok := top.get("definitions"); ok {
        doc.Components.Schemas = reorder(doc.Components.Schemas, mappingKeys(defs.n))
        for name, s := range doc.Components.Schemas.All() {
            if src, ok := defs.get(name); ok {
                restoreSchemaOrder(s, src)
            }
        }
    }
}

// restoreV2OperationOrder reorders the properties of converted body and
// response schemas to match the Swagger 2.0 source of the path item.
func restoreV2OperationOrder(item *PathItem, src node) {
    if item == nil {
        return
    }
    for _, op := range item.Operations {
        srcOp, ok := src.get(string(op.Method))
        if !ok {
            continue
        }
        if op.RequestBody != nil {
            if params, ok := srcOp.get("parameters"); ok {
                restoreV2BodyOrder(op.RequestBody, params)
            }
        }
        responses, ok := srcOp.get("responses")
        if !ok {
            continue
        }
        for code, resp := range op.Responses.All() {
            srcResp, ok := responses.get(code)
            if !ok || resp == nil {
                continue
            }
            if schema, ok := srcResp.get("schema"); ok {
                for _, m := range resp.Content.All() {
                    if m != nil {
                        restoreSchemaOrder(m.Schema, schema)
                    }
                }
            }
        }
    }
}

// restoreV2BodyOrder handles the body shapes a v2 operation can have: one
// body parameter whose schema becomes the body, or an object built from
// several body or formData parameters whose properties follow the parameter
// order.
func restoreV2BodyOrder(body *RequestBody, params node) {
    if params.n.Kind != yaml.SequenceNode {
        return
    }
    var bodies []node
    var fields []string
    forms := 0
    for _, p := range params.n.Content {
        pn := node{n: deref(p)}
        in, _ := pn.get("in")
        if in.n == nil {
            continue
        }
        switch strings.ToLower(in.n.Value) {
        case "body":
            bodies = append(bodies, pn)
        case "formdata":
            forms++
        default:
            continue
        }
        if name, ok := pn.get("name"); ok {
            fields = append(fields, name.n.Value)
        }
    }
    for _, m := range body.Content.All() {
        if m == nil || m.Schema == nil {
            continue
        }
        if forms == 0 && len(bodies) == 1 {
            if schema, ok := bodies[0].get("schema"); ok {
                restoreSchemaOrder(m.Schema, schema)
            }
            continue
        }
        m.Schema.Properties = reorder(m.Schema.Properties, fields)
    }
}

// restoreSchemaOrder puts the properties of s, and of the schemas nested in
// it, back into the order of the source mapping src.
func restoreSchemaOrder(s *Schema, src node) {
    if s == nil || src.n == nil || src.n.Kind != yaml.MappingNode {
        return
    }
    if props, ok := src.get("properties"); ok {
        s.Properties = reorder(s.Properties, mappingKeys(props.n))
        for name, p := range s.Properties.All() {
            if ps, ok := props.get(name); ok {
                restoreSchemaOrder(p, ps)
            }
        }
    }
    if items, ok := src.get("items"); ok {
        restoreSchemaOrder(s.Items, items)
    }
    if all, ok := src.get("allOf"); ok && all.n.Kind == yaml.SequenceNode {
        for i, m := range s.AllOf {
            if i < len(all.n.Content) {
                restoreSchemaOrder(m, node{n: deref(all.n.Content[i])})
            }
        }
    }
}

func mappingKeys(n *yaml.Node) []string {
    if n == nil || n.Kind != yaml.MappingNode {
        return nil
    }
    keys := make([]string, 0, len(n.Content)/2)
    for i := 0; i+1 < len(n.Content); i += 2 {
        keys = append(keys, n.Content[i].Value)
    }
    return keys
}

func reorder[V any](m *ordered.Map[V], keys []string) *ordered.Map[V] {
    if m.Len() == 0 {
        return m
    }
    // Keys missing from the source keep their converted order at the end.
    out := ordered.New[V]()
    for _, k := range slices.Concat(keys, m.Keys()) {
        if v, ok := m.Get(k); ok && !out.Has(k) {
            out.Set(k, v)
        }
    }
    return out
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
    client := &http.Client{Timeout: settings.HTTPTimeout}
    var lastErr error
    backoff := settings.BackoffBase
    if backoff <= 0 {
        backoff = 200 * time.Millisecond
    }
    attempts := settings.MaxRetries
    if attempts <= 0 {
        attempts = 1
    }
    for i := 0; i < attempts; i++ {
        body, retry, err := fetchOnce(ctx, client, rawURL)
        if err == nil {
            return body, nil
        }
        if !retry {
            return nil, err
        }
        lastErr = err
        if i == attempts-1 {
            break
        }
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-time.After(backoff):
        }
        backoff *= 2
    }
    if lastErr == nil {
        lastErr = errors.New("fetch failed")
    }
    return nil, lastErr
}

// fetchOnce performs a single GET; retry reports whether the failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
    if err != nil {
        return nil, false, err
    }
    resp, err := client.Do(req)
    if err != nil {
        return nil, ctx.Err() == nil, err
    }
    defer resp.Body.Close()
    if resp.StatusCode < 300 {
        body, err := io.ReadAll(resp.Body)
        return body, false, err
    }
    if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
        return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
    }
    msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
    return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
