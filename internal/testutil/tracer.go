package testutil

import (
	"context"
	"sync"

	"github.com/gostratum/tracingx"
)

// RecordingTracer implements tracingx.Tracer and keeps every span it starts
type RecordingTracer struct {
	mu    sync.Mutex
	spans []*RecordedSpan
}

var _ tracingx.Tracer = (*RecordingTracer)(nil)

// NewRecordingTracer creates an empty RecordingTracer
func NewRecordingTracer() *RecordingTracer {
	return &RecordingTracer{}
}

func (t *RecordingTracer) Start(ctx context.Context, operationName string, opts ...tracingx.SpanOption) (context.Context, tracingx.Span) {
	cfg := &tracingx.SpanConfig{Attributes: make(map[string]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	span := &RecordedSpan{
		Name: operationName,
		Kind: cfg.Kind,
		tags: make(map[string]any, len(cfg.Attributes)),
		ctx:  ctx,
	}
	for k, v := range cfg.Attributes {
		span.tags[k] = v
	}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()

	return ctx, span
}

func (t *RecordingTracer) Extract(ctx context.Context, carrier any) (context.Context, error) {
	return ctx, nil
}

func (t *RecordingTracer) Inject(ctx context.Context, carrier any) error {
	return nil
}

func (t *RecordingTracer) Shutdown(ctx context.Context) error {
	return nil
}

// Spans returns the spans started so far, in start order
func (t *RecordingTracer) Spans() []*RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*RecordedSpan(nil), t.spans...)
}

// RecordedSpan is a tracingx.Span that remembers its tags and error
type RecordedSpan struct {
	Name string
	Kind tracingx.SpanKind

	mu    sync.Mutex
	tags  map[string]any
	err   error
	ended bool
	ctx   context.Context
}

func (s *RecordedSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}

func (s *RecordedSpan) SetTag(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[key] = value
}

func (s *RecordedSpan) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *RecordedSpan) LogFields(fields ...tracingx.Field) {}

func (s *RecordedSpan) Context() context.Context { return s.ctx }

func (s *RecordedSpan) TraceID() string { return "recorded-trace" }

func (s *RecordedSpan) SpanID() string { return "recorded-span" }

// Tag returns the value recorded under key
func (s *RecordedSpan) Tag(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags[key]
}

// Err returns the error passed to SetError, if any
func (s *RecordedSpan) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Ended reports whether End was called
func (s *RecordedSpan) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
