package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/rbbench/internal/observability"
)

// Phase names used in spans, logs and metrics.
const (
	PhaseInsert    = "insert"
	PhaseLookup    = "lookup"
	PhaseHibernate = "hibernate"
)

// ErrSizeMismatch is returned when a container reports a size other than the
// number of keys inserted into it.
var ErrSizeMismatch = errors.New("container size mismatch")

// Options configures a Runner.
type Options struct {
	Rounds       int
	BaseExponent int
	Lookups      int
	Containers   []string
	Hibernate    bool
	Container    ContainerOptions
}

// Runner executes benchmark rounds.
type Runner struct {
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.BenchMetrics
	now     func() time.Time
}

// RunnerOption configures optional Runner collaborators.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer sets the tracer. Defaults to otel.Tracer("rbbench").
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tracer }
}

// WithMetrics sets the metric instruments. Nil disables metrics.
func WithMetrics(metrics *observability.BenchMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = metrics }
}

// NewRunner creates a Runner for the given options.
func NewRunner(opts Options, runnerOpts ...RunnerOption) *Runner {
	r := &Runner{
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("rbbench"),
		now:    time.Now,
	}

	for _, opt := range runnerOpts {
		opt(r)
	}

	return r
}

// RoundSize returns the key count of round i: 2^(base+i).
func RoundSize(base, i int) int {
	return 1 << (base + i)
}

// Run executes every round. Cancellation is honored between rounds and
// between containers; completed rounds are returned along with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	ctx, span := r.tracer.Start(ctx, "rbbench.run",
		trace.WithAttributes(
			attribute.Int("rbbench.rounds", r.opts.Rounds),
			attribute.StringSlice("rbbench.containers", r.opts.Containers),
		),
	)
	defer span.End()

	res := &Results{
		Containers:   r.opts.Containers,
		Lookups:      r.opts.Lookups,
		BaseExponent: r.opts.BaseExponent,
		Hibernate:    r.opts.Hibernate,
		StartedAt:    r.now(),
	}

	var keys []string

	for i := range r.opts.Rounds {
		err := ctx.Err()
		if err != nil {
			return res, err
		}

		n := RoundSize(r.opts.BaseExponent, i)
		keys = extendKeys(keys, max(n, r.opts.Lookups))

		round, err := r.runRound(ctx, i, keys[:n], keys[:r.opts.Lookups])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "round failed")

			return res, err
		}

		res.Rounds = append(res.Rounds, round)
		r.metrics.RecordRound(ctx)
	}

	return res, nil
}

func (r *Runner) runRound(ctx context.Context, index int, inserts, lookups []string) (Round, error) {
	ctx, span := r.tracer.Start(ctx, "rbbench.round",
		trace.WithAttributes(attribute.Int("rbbench.round", index), attribute.Int("rbbench.keys", len(inserts))),
	)
	defer span.End()

	ctx = observability.WithRound(ctx, index)

	round := Round{Index: index, Keys: len(inserts)}

	for _, name := range r.opts.Containers {
		err := ctx.Err()
		if err != nil {
			return round, err
		}

		m, err := r.measure(ctx, name, inserts, lookups)
		if err != nil {
			return round, fmt.Errorf("round %d: %s: %w", index, name, err)
		}

		round.Measurements = append(round.Measurements, m)
	}

	attrs := []any{"keys", len(inserts)}
	for _, m := range round.Measurements {
		attrs = append(attrs, m.Container, time.Duration(m.LookupNs))
	}

	r.logger.InfoContext(ctx, "round complete", attrs...)

	return round, nil
}

func (r *Runner) measure(ctx context.Context, name string, inserts, lookups []string) (Measurement, error) {
	ctx, span := r.tracer.Start(ctx, "rbbench.container",
		trace.WithAttributes(attribute.String("rbbench.container", name)),
	)
	defer span.End()

	ctx = observability.WithContainer(ctx, name)

	c, err := NewContainer(name, r.opts.Container)
	if err != nil {
		return Measurement{}, err
	}
	defer c.Close()

	m := Measurement{Container: name}

	start := r.now()

	for i, key := range inserts {
		err = c.Add(key, i)
		if err != nil {
			return m, fmt.Errorf("add: %w", err)
		}
	}

	insertTime := r.now().Sub(start)
	m.InsertNs = insertTime.Nanoseconds()
	r.metrics.RecordPhase(ctx, observability.PhaseSample{Container: name, Phase: PhaseInsert, Keys: len(inserts), Duration: insertTime})

	if h, ok := c.(Hibernator); ok && r.opts.Hibernate {
		m.HibernatedBytes, err = r.cycle(ctx, name, h)
		if err != nil {
			return m, err
		}
	}

	start = r.now()

	for _, key := range lookups {
		if c.Find(key) {
			m.Found++
		}
	}

	lookupTime := r.now().Sub(start)
	m.LookupNs = lookupTime.Nanoseconds()
	r.metrics.RecordPhase(ctx, observability.PhaseSample{Container: name, Phase: PhaseLookup, Keys: len(lookups), Duration: lookupTime})

	m.Size = c.Len()
	if m.Size != len(inserts) {
		return m, fmt.Errorf("%w: %s holds %d, want %d", ErrSizeMismatch, name, m.Size, len(inserts))
	}

	r.metrics.RecordSize(ctx, name, m.Size, m.HibernatedBytes)

	r.logger.DebugContext(ctx, "container measured",
		"keys", len(inserts),
		"insert", time.Duration(m.InsertNs),
		"lookup", time.Duration(m.LookupNs),
	)

	return m, nil
}

// cycle hibernates and boots the container, returning the compressed size.
func (r *Runner) cycle(ctx context.Context, name string, h Hibernator) (int, error) {
	start := r.now()

	err := h.Hibernate()
	if err != nil {
		return 0, err
	}

	size := h.HibernatedSize()

	err = h.Boot()
	if err != nil {
		return 0, err
	}

	r.metrics.RecordPhase(ctx, observability.PhaseSample{Container: name, Phase: PhaseHibernate, Duration: r.now().Sub(start)})

	return size, nil
}
