package spec

import (
    "strings"

    "github.com/mark3labs/swagger2ts/internal/ordered"
)

// Document model decoded from an OpenAPI 3.x description. Only the parts the
// TypeScript generator reads are modeled; every optional field has an explicit
// zero value so callers use presence checks instead of probing raw trees.

type HttpMethod string

const (
    GET     HttpMethod = "get"
    PUT     HttpMethod = "put"
    POST    HttpMethod = "post"
    DELETE  HttpMethod = "delete"
    OPTIONS HttpMethod = "options"
    HEAD    HttpMethod = "head"
    PATCH   HttpMethod = "patch"
    TRACE   HttpMethod = "trace"
)

// ParseMethod returns the HttpMethod for a path item key, or false when the
// key is not an operation (e.g. "parameters", "summary").
func ParseMethod(key string) (HttpMethod, bool) {
    switch m := HttpMethod(key); m {
    case GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE:
        return m, true
    }
    return "", false
}

type Document struct {
    OpenAPI    string
    Info       Info
    Paths      *ordered.Map[*PathItem]
    Components Components
}

type Info struct {
    Title       string
    Version     string
    Description string
}

type Components struct {
    Schemas       *ordered.Map[*Schema]
    Parameters    *ordered.Map[*Parameter]
    RequestBodies *ordered.Map[*RequestBody]
    Responses     *ordered.Map[*Response]
}

type PathItem struct {
    Parameters []*Parameter
    Operations []*Operation // document order
}

type Operation struct {
    Method      HttpMethod
    OperationID string
    Summary     string
    Description string
    Deprecated  bool
    Tags        []string
    Parameters  []*Parameter
    RequestBody *RequestBody
    Responses   *ordered.Map[*Response] // by status code
}

type Parameter struct {
    Ref         string
    Name        string
    In          string // path|query|header|cookie
    Required    bool
    Style       string
    Description string
    Schema      *Schema
}

type RequestBody struct {
    Ref         string
    Description string
    Required    bool
    Content     *ordered.Map[*Media] // by mime type
}

type Response struct {
    Ref         string
    Description string
    Content     *ordered.Map[*Media]
}

type Media struct {
    Schema *Schema
}

// Schema is a raw schema object or a reference to one (Ref set).
type Schema struct {
    Ref         string
    Type        string
    Format      string
    Description string
    Nullable    bool
    // NullableSet records that nullability was written explicitly, so an
    // explicit false can override an earlier true in an allOf.
    NullableSet bool
    // RequiredFlag holds a boolean `required` written on a property itself.
    RequiredFlag *bool
    Required     []string
    Properties   *ordered.Map[*Schema]
    Items        *Schema
    AllOf        []*Schema
    OneOf        []*Schema
    AnyOf        []*Schema
    Enum         []any
}

// IsRef reports whether s only points at another definition.
func (s *Schema) IsRef() bool { return s != nil && s.Ref != "" }

// IsArray reports whether s describes an array.
func (s *Schema) IsArray() bool {
    return s != nil && s.Ref == "" && (s.Type == "array" || (s.Type == "" && s.Items != nil))
}

// IsObject reports whether s is an inline object shape: an explicit object
// type or untyped with properties, and not a union.
func (s *Schema) IsObject() bool {
    if s == nil || s.Ref != "" || len(s.OneOf) > 0 || len(s.AnyOf) > 0 || len(s.Enum) > 0 {
        return false
    }
    return s.Type == "object" || (s.Type == "" && s.Properties.Len() > 0)
}

// Union returns the oneOf members, falling back to anyOf.
func (s *Schema) Union() []*Schema {
    if s == nil {
        return nil
    }
    if len(s.OneOf) > 0 {
        return s.OneOf
    }
    return s.AnyOf
}

// RefName returns the terminal segment of a reference, unescaping JSON
// pointer tokens. "#/components/schemas/Pet" -> "Pet"
func RefName(ref string) string {
    name := ref[strings.LastIndexByte(ref, '/')+1:]
    return pointerUnescaper.Replace(name)
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
