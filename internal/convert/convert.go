// Package convert is the one-call entry point: a decoded OpenAPI document in,
// TypeScript source out. It holds no state between calls.
package convert

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/swagger2ts/internal/emitter/tsemitter"
	"github.com/mark3labs/swagger2ts/internal/resolve"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// Option configures a conversion.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	collision resolve.CollisionPolicy
	filters   []spec.FilterOption
	emit      tsemitter.Options
}

// WithLogger routes phase logs to l.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithCollisionPolicy decides what happens when two schemas claim one name.
func WithCollisionPolicy(p resolve.CollisionPolicy) Option {
	return func(c *config) { c.collision = p }
}

// WithFilter restricts the operations that are emitted.
func WithFilter(opts ...spec.FilterOption) Option {
	return func(c *config) { c.filters = append(c.filters, opts...) }
}

// WithRequestHelper sets the name of the generic function the factories call.
func WithRequestHelper(name string) Option {
	return func(c *config) { c.emit.RequestHelper = name }
}

// WithImportFrom prefixes the output with an import of the request helper.
func WithImportFrom(module string) Option {
	return func(c *config) { c.emit.ImportFrom = module }
}

// Result is the generated source and a summary of what it holds.
type Result struct {
	Text         string
	Declarations int
	Functions    int
}

// Convert resolves doc and renders it. It either returns the complete text or
// an error, never partial output.
func Convert(ctx context.Context, doc *spec.Document, opts ...Option) (*Result, error) {
	cfg := config{collision: resolve.CollisionError}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	start := time.Now()
	model, err := resolve.Resolve(ctx, doc, resolve.Options{
		Filter:    spec.NewFilter(cfg.filters...),
		Collision: cfg.collision,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	out, err := tsemitter.Emit(ctx, model, cfg.emit)
	if err != nil {
		return nil, err
	}
	logger.Debug("converted document",
		"title", doc.Info.Title,
		"declarations", out.Declarations,
		"functions", out.Functions,
		"elapsed", time.Since(start),
	)
	return &Result{Text: out.Text, Declarations: out.Declarations, Functions: out.Functions}, nil
}
