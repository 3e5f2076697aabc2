package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
	attrRound   = "round"
)

// NewLogger builds the rbbench logger writing to w: text or JSON records at
// cfg.LogLevel, stamped with service metadata, the active span and the
// benchmark scope carried by the context.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(w, handlerOpts)
	} else {
		inner = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

type scopeKey struct{}

// benchScope is the round and container a log call happens under.
type benchScope struct {
	round     int
	hasRound  bool
	container string
}

func scopeFrom(ctx context.Context) benchScope {
	s, _ := ctx.Value(scopeKey{}).(benchScope)

	return s
}

// WithRound tags ctx with a benchmark round index. Records logged with the
// returned context carry a "round" attribute.
func WithRound(ctx context.Context, index int) context.Context {
	s := scopeFrom(ctx)
	s.round = index
	s.hasRound = true

	return context.WithValue(ctx, scopeKey{}, s)
}

// WithContainer tags ctx with the container under measurement.
func WithContainer(ctx context.Context, name string) context.Context {
	s := scopeFrom(ctx)
	s.container = name

	return context.WithValue(ctx, scopeKey{}, s)
}

// TracingHandler is an [slog.Handler] that adds the span's trace_id and
// span_id, the benchmark round and container from the context, and fixed
// service metadata to every record.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner. Service attributes are attached before any
// group so they stay at the top level.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{
		inner: inner.WithAttrs(attrs),
	}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds span and benchmark scope attributes, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	scope := scopeFrom(ctx)
	if scope.hasRound {
		record.AddAttrs(slog.Int(attrRound, scope.round))
	}

	if scope.container != "" {
		record.AddAttrs(slog.String(attrContainer, scope.container))
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs returns a new TracingHandler with additional attributes on the inner handler.
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup returns a new TracingHandler with a group prefix on the inner handler.
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}

// ParseLevel maps a logging.level config value to a slog level. Unknown
// names yield info.
func ParseLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
