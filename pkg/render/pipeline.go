package render

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/vango-dev/statesvc/internal/errors"
	"github.com/vango-dev/statesvc/pkg/statesvc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for render spans.
const defaultTracerName = "statesvc"

// DefaultDoctype is prefixed to every rendered document.
const DefaultDoctype = "<!DOCTYPE html>"

// View renders a component tree for props to an HTML document.
type View func(ctx context.Context, props statesvc.Props) (string, error)

// Pipeline runs server render passes against a state-service store.
//
// Every pass clears the store, records props as the store's locals, renders
// the view and injects the bootstrap payload. Passes on one Pipeline are
// serialized so a Clear never overlaps an in-flight render.
type Pipeline struct {
	mu sync.Mutex

	store      *statesvc.Store
	doctype    string
	payloadVar string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore sets the store reset before each pass. Defaults to
// statesvc.Default().
func WithStore(s *statesvc.Store) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.store = s
		}
	}
}

// WithDoctype sets the doctype prefixed to every document.
func WithDoctype(doctype string) Option {
	return func(p *Pipeline) {
		p.doctype = doctype
	}
}

// WithPayloadVar sets the global the bootstrap script assigns props to.
func WithPayloadVar(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.payloadVar = name
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer sets the tracer used for render spans. Defaults to the
// global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewPipeline creates a render pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      statesvc.Default(),
		doctype:    DefaultDoctype,
		payloadVar: DefaultPayloadVar,
		logger:     slog.Default(),
		tracer:     otel.Tracer(defaultTracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the store the pipeline resets.
func (p *Pipeline) Store() *statesvc.Store {
	return p.store
}

// PayloadVar returns the bootstrap payload global.
func (p *Pipeline) PayloadVar() string {
	return p.payloadVar
}

// Render runs one render pass and returns the document.
func (p *Pipeline) Render(ctx context.Context, props statesvc.Props, view View) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := p.tracer.Start(ctx, "statesvc.render",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.Int("statesvc.props", len(props)),
			attribute.Int("statesvc.cached_before_reset", p.store.Len()),
		),
	)
	defer span.End()

	p.store.Clear()
	p.store.SetLocals(props)

	html, err := view(ctx, props.Clone())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rerr := errors.FromError(err, "E132")
		p.logger.Error("statesvc: render failed", "error", rerr.FormatCompact(), "cause", err)
		return "", rerr
	}

	script, err := BootstrapScript(p.payloadVar, props)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	doc := p.doctype + InjectHead(html, script)

	span.SetAttributes(
		attribute.Int("statesvc.html_bytes", len(doc)),
		attribute.Int("statesvc.cached_after_render", p.store.Len()),
	)
	span.SetStatus(codes.Ok, "")
	p.logger.Debug("statesvc: render complete", "bytes", len(doc), "cached", p.store.Len())
	return doc, nil
}

// RenderTo runs one render pass and writes the document to w.
func (p *Pipeline) RenderTo(ctx context.Context, w io.Writer, props statesvc.Props, view View) error {
	doc, err := p.Render(ctx, props, view)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}
