package spec

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "sync/atomic"
    "testing"
    "time"
)

func TestLoad_BlocksFileURL(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    _, err := Load(ctx, "file:///etc/hosts")
    if err == nil {
        t.Fatalf("expected error for file:// URL")
    }
    var se *SpecError
    if !errors.As(err, &se) {
        t.Fatalf("expected SpecError, got %T", err)
    }
    if se.Code != InputError {
        t.Fatalf("expected InputError, got %v", se.Code)
    }
}

func TestLoad_UnsupportedScheme(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    _, err := Load(ctx, "ftp://example.com/spec.yaml")
    if err == nil {
        t.Fatalf("expected error for unsupported scheme")
    }
    var se *SpecError
    if !errors.As(err, &se) || se.Code != InputError {
        t.Fatalf("expected InputError, got %v (%T)", err, err)
    }
}

func TestLoad_EmptyInput(t *testing.T) {
    t.Parallel()
    _, err := Load(context.Background(), "  ")
    var se *SpecError
    if !errors.As(err, &se) || se.Code != InputError {
        t.Fatalf("expected InputError, got %v (%T)", err, err)
    }
}

func TestLoad_MissingFile(t *testing.T) {
    t.Parallel()
    _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
    var se *SpecError
    if !errors.As(err, &se) || se.Code != InputError {
        t.Fatalf("expected InputError, got %v (%T)", err, err)
    }
    if !errors.Is(err, os.ErrNotExist) {
        t.Fatalf("expected cause to wrap os.ErrNotExist, got %v", se.Cause)
    }
}

func TestLoad_NetworkError(t *testing.T) {
    t.Parallel()
    // Unused port to provoke a quick network failure.
    url := "http://127.0.0.1:1/spec.yaml"
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    _, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
    if err == nil {
        t.Fatalf("expected network error")
    }
    var se *SpecError
    if !errors.As(err, &se) || se.Code != NetworkError {
        t.Fatalf("expected NetworkError, got %v (%T)", err, err)
    }
}

func TestLoad_URL_RetriesTransientFailures(t *testing.T) {
    t.Parallel()
    var calls atomic.Int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if calls.Add(1) == 1 {
            w.WriteHeader(http.StatusServiceUnavailable)
            return
        }
        _, _ = w.Write([]byte("openapi: 3.0.0\ninfo: {title: Remote, version: '1'}\npaths: {}\n"))
    }))
    defer srv.Close()

    doc, err := Load(context.Background(), srv.URL+"/openapi.yaml", WithBackoffBase(time.Millisecond))
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if doc.Info.Title != "Remote" {
        t.Fatalf("expected title Remote, got %q", doc.Info.Title)
    }
    if got := calls.Load(); got != 2 {
        t.Fatalf("expected 2 requests, got %d", got)
    }
}

func TestLoad_URL_ClientErrorNotRetried(t *testing.T) {
    t.Parallel()
    var calls atomic.Int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        calls.Add(1)
        http.Error(w, "missing", http.StatusNotFound)
    }))
    defer srv.Close()

    _, err := Load(context.Background(), srv.URL, WithBackoffBase(time.Millisecond))
    var se *SpecError
    if !errors.As(err, &se) || se.Code != NetworkError {
        t.Fatalf("expected NetworkError, got %v (%T)", err, err)
    }
    if !strings.Contains(err.Error(), "404") {
        t.Fatalf("expected status in message, got %q", err.Error())
    }
    if got := calls.Load(); got != 1 {
        t.Fatalf("expected a single request, got %d", got)
    }
}

func TestLoad_UnknownVersion(t *testing.T) {
    t.Parallel()
    path := filepath.Join(t.TempDir(), "x.yaml")
    if err := os.WriteFile(path, []byte("info: {title: x}\npaths: {}\n"), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }
    _, err := Load(context.Background(), path)
    var se *SpecError
    if !errors.As(err, &se) || se.Code != ParseError {
        t.Fatalf("expected ParseError, got %v (%T)", err, err)
    }
    if se.Location == "" {
        t.Fatalf("expected location to be set")
    }
}

func TestLoad_V2_Conversion_Success(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "swagger.yaml")
    content := strings.TrimSpace(`swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
paths:
  "/zoo":
    get:
      responses:
        "200":
          description: ok
  "/hello":
    post:
      operationId: sayHello
      parameters:
        - in: body
          name: body
          required: true
          schema:
            $ref: '#/definitions/Greeting'
      responses:
        "200":
          description: ok
definitions:
  Zebra:
    type: object
    properties:
      stripes: { type: integer }
  Greeting:
    type: object
    properties:
      text: { type: string }
`) + "\n"
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }

    ctx := context.Background()
    doc, err := Load(ctx, path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if !strings.HasPrefix(doc.OpenAPI, "3.") {
        t.Fatalf("expected OpenAPI v3, got %q", doc.OpenAPI)
    }
    if got := strings.Join(doc.Paths.Keys(), ","); got != "/zoo,/hello" {
        t.Fatalf("expected source path order, got %s", got)
    }
    if got := strings.Join(doc.Components.Schemas.Keys(), ","); got != "Zebra,Greeting" {
        t.Fatalf("expected source definition order, got %s", got)
    }
    item, _ := doc.Paths.Get("/hello")
    if len(item.Operations) != 1 || item.Operations[0].RequestBody == nil {
        t.Fatalf("expected converted request body on /hello")
    }
}

func TestLoad_V2_Conversion_Failure(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "swagger-bad.yaml")
    content := strings.TrimSpace(`swagger: "2.0"
paths: {}
`) + "\n"
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }

    ctx := context.Background()
    _, err := Load(ctx, path)
    if err == nil {
        t.Fatalf("expected conversion error")
    }
    var se *SpecError
    if !errors.As(err, &se) {
        t.Fatalf("expected SpecError, got %T", err)
    }
    if se.Code != ConversionError {
        t.Fatalf("expected ConversionError, got %v", se.Code)
    }
}

func TestSpecError_Sentinels(t *testing.T) {
    t.Parallel()
    ref := &SpecError{Code: ReferenceError, Message: "x", Cause: ErrCircular}
    if !errors.Is(ref, ErrReference) || !errors.Is(ref, ErrCircular) {
        t.Fatalf("expected reference error to match ErrReference and ErrCircular")
    }
    if errors.Is(ref, ErrCollision) {
        t.Fatalf("reference error must not match ErrCollision")
    }
    col := &SpecError{Code: CollisionError, Message: "y"}
    if !errors.Is(col, ErrCollision) {
        t.Fatalf("expected collision error to match ErrCollision")
    }
}

func TestParse_V2_KeepsPropertyOrder(t *testing.T) {
    t.Parallel()
    src := `swagger: "2.0"
info: {title: order, version: "1"}
paths:
  /orders:
    post:
      consumes: [application/json]
      produces: [application/json]
      parameters:
        - in: body
          name: order
          schema:
            type: object
            properties:
              sku: { type: string }
              qty: { type: integer }
      responses:
        200:
          description: ok
          schema:
            type: object
            properties:
              total: { type: number }
              currency: { type: string }
  /notes:
    post:
      consumes: [application/json]
      parameters:
        - { in: body, name: title, schema: { type: string } }
        - { in: body, name: author, schema: { type: string } }
      responses:
        204: { description: none }
definitions:
  Order:
    type: object
    properties:
      zone: { type: string }
      address:
        type: object
        properties:
          street: { type: string }
          city: { type: string }
      lines:
        type: array
        items:
          type: object
          properties:
            sku: { type: string }
            amount: { type: integer }
`
    doc, err := Parse([]byte(src), "order.yaml")
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    keys := func(s *Schema) string {
        if s == nil {
            return "<nil>"
        }
        return strings.Join(s.Properties.Keys(), ",")
    }

    order, _ := doc.Components.Schemas.Get("Order")
    if got := keys(order); got != "zone,address,lines" {
        t.Errorf("definition properties = %s", got)
    }
    address, _ := order.Properties.Get("address")
    if got := keys(address); got != "street,city" {
        t.Errorf("nested properties = %s", got)
    }
    lines, _ := order.Properties.Get("lines")
    if got := keys(lines.Items); got != "sku,amount" {
        t.Errorf("item properties = %s", got)
    }

    item, _ := doc.Paths.Get("/orders")
    op := item.Operations[0]
    body, _ := op.RequestBody.Content.Get("application/json")
    if got := keys(body.Schema); got != "sku,qty" {
        t.Errorf("body properties = %s", got)
    }
    resp, _ := op.Responses.Get("200")
    media, _ := resp.Content.Get("application/json")
    if got := keys(media.Schema); got != "total,currency" {
        t.Errorf("response properties = %s", got)
    }

    notes, _ := doc.Paths.Get("/notes")
    merged, _ := notes.Operations[0].RequestBody.Content.Get("application/json")
    if got := keys(merged.Schema); got != "title,author" {
        t.Errorf("merged body properties = %s", got)
    }
}
