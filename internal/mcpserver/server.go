// Package mcpserver exposes the OpenAPI to TypeScript conversion as an MCP
// (Model Context Protocol) tool served over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mark3labs/swagger2ts/internal/convert"
	"github.com/mark3labs/swagger2ts/internal/resolve"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

const serverInstructions = `swagger2ts MCP server: converts OpenAPI 3.x and Swagger 2.0 documents into TypeScript interfaces, enums and request factory functions.

Provide the document through exactly one of spec.file, spec.url or spec.content. The generated source is returned inline as "text".`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, version string, logger *slog.Logger) error {
	return NewServer(version, logger).Run(ctx, &mcp.StdioTransport{})
}

// NewServer builds a server with every tool registered.
func NewServer(version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := mcp.NewServer(
		&mcp.Implementation{Name: "swagger2ts", Version: version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
			Logger:       logger,
		},
	)
	h := &handler{logger: logger}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert",
		Description: "Convert an OpenAPI 3.x or Swagger 2.0 document to TypeScript. Returns interface and enum declarations for every schema followed by one exported request function per operation. Filter operations with include_tags, exclude_tags, methods or paths (regular expressions).",
	}, h.convert)
	return server
}

// specInput is the three ways a document can be provided. Exactly one of
// File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OpenAPI file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch an OpenAPI document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline OpenAPI document content (JSON or YAML)"`
}

type convertInput struct {
	Spec          specInput `json:"spec"                     jsonschema:"The OpenAPI document to convert"`
	IncludeTags   []string  `json:"include_tags,omitempty"   jsonschema:"Only convert operations carrying one of these tags"`
	ExcludeTags   []string  `json:"exclude_tags,omitempty"   jsonschema:"Skip operations carrying any of these tags"`
	Methods       []string  `json:"methods,omitempty"        jsonschema:"Only convert operations with these HTTP methods"`
	Paths         []string  `json:"paths,omitempty"          jsonschema:"Only convert operations whose path matches one of these regular expressions"`
	RequestHelper string    `json:"request_helper,omitempty" jsonschema:"Name of the generic request function the factories call (default request)"`
	ImportFrom    string    `json:"import_from,omitempty"    jsonschema:"Module to import the request helper from"`
	OnCollision   string    `json:"on_collision,omitempty"   jsonschema:"What to do when two schemas claim one name: error (default) or overwrite"`
}

type convertOutput struct {
	Title        string `json:"title,omitempty"`
	Declarations int    `json:"declarations"`
	Functions    int    `json:"functions"`
	Text         string `json:"text"`
}

type handler struct {
	logger *slog.Logger
}

func (h *handler) convert(ctx context.Context, _ *mcp.CallToolRequest, input convertInput) (*mcp.CallToolResult, convertOutput, error) {
	doc, err := loadInput(ctx, input.Spec)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}
	opts, err := convertOptions(input)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}
	opts = append(opts, convert.WithLogger(h.logger))

	res, err := convert.Convert(ctx, doc, opts...)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}
	return nil, convertOutput{
		Title:        doc.Info.Title,
		Declarations: res.Declarations,
		Functions:    res.Functions,
		Text:         res.Text,
	}, nil
}

func loadInput(ctx context.Context, in specInput) (*spec.Document, error) {
	set := 0
	for _, v := range []string{in.File, in.URL, in.Content} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of file, url, or content must be provided")
	}
	switch {
	case in.File != "":
		return spec.Load(ctx, in.File)
	case in.URL != "":
		return spec.Load(ctx, in.URL)
	default:
		return spec.Parse([]byte(in.Content), "content")
	}
}

func convertOptions(input convertInput) ([]convert.Option, error) {
	policy, err := resolve.ParseCollisionPolicy(input.OnCollision)
	if err != nil {
		return nil, err
	}
	methods := make([]spec.HttpMethod, 0, len(input.Methods))
	for _, m := range input.Methods {
		method, ok := spec.ParseMethod(strings.ToLower(strings.TrimSpace(m)))
		if !ok {
			return nil, fmt.Errorf("unknown HTTP method %q", m)
		}
		methods = append(methods, method)
	}
	if err := spec.ValidatePathPatterns(input.Paths); err != nil {
		return nil, err
	}
	return []convert.Option{
		convert.WithCollisionPolicy(policy),
		convert.WithFilter(
			spec.WithIncludeTags(input.IncludeTags),
			spec.WithExcludeTags(input.ExcludeTags),
			spec.WithMethods(methods),
			spec.WithPathPatterns(input.Paths),
		),
		convert.WithRequestHelper(input.RequestHelper),
		convert.WithImportFrom(input.ImportFrom),
	}, nil
}

func errResult(err error) *mcp.CallToolResult {
	msg := err.Error()
	var se *spec.SpecError
	if errors.As(err, &se) && se.JSONPointer != "" {
		msg += " (at " + se.JSONPointer + ")"
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
