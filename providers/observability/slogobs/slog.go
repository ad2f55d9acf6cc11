// Package slogobs implements observability.Provider on top of Go's standard
// library slog. It routes spans, metrics, and log events through a structured
// slog.Logger, giving lightweight observability without external dependencies.
package slogobs

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fieldlens/fieldlens/providers/observability"
)

// Observer implements observability.Provider using slog.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

// Option configures an Observer.
type Option func(*config)

type config struct {
	logger *slog.Logger
	level  slog.Level
	json   bool
}

// WithLogger uses an existing slog.Logger instead of constructing one.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithLevel sets the minimum log level (default slog.LevelInfo).
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithJSON switches output to the JSON handler (default is text).
func WithJSON() Option {
	return func(c *config) { c.json = true }
}

// New creates a slog-based observer. With no options it logs text at INFO
// level to stderr.
func New(opts ...Option) *Observer {
	cfg := config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		handlerOpts := &slog.HandlerOptions{Level: cfg.level}
		if cfg.json {
			logger = slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
		} else {
			logger = slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
		}
	}

	return &Observer{
		logger:  logger,
		metrics: &metricsStore{},
	}
}

// Ensure Observer implements observability.Provider
var _ observability.Provider = (*Observer)(nil)

// --- TRACING ---

// StartSpan begins a named span, logs its start at debug level, and returns a
// Span whose End method logs the elapsed duration.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     attrs,
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span started", toSlogAttrs(name, "span.start", attrs)...)
	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger
	mu        sync.Mutex
	attrs     []observability.Attribute
	status    observability.StatusCode
	statusMsg string
}

func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := toSlogAttrs(s.name, "span.end", s.attrs)
	attrs = append(attrs, slog.Duration("duration", time.Since(s.startTime)))
	if s.status == observability.StatusError {
		attrs = append(attrs, slog.String("status", "error"), slog.String("status_description", s.statusMsg))
		s.logger.LogAttrs(context.Background(), slog.LevelWarn, "span ended", attrs...)
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "span ended", attrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
	s.statusMsg = description
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Error(err))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, name, toSlogAttrs(s.name, name, attrs)...)
}

// --- METRICS ---

// metricsStore keeps in-process counters; values are logged on update rather
// than exported, which is enough for a CLI/server without a metrics backend.
type metricsStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func (m *metricsStore) add(name string, value int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = map[string]int64{}
	}
	m.counters[name] += value
	return m.counters[name]
}

func (o *Observer) Counter(name string) observability.Counter {
	return &slogCounter{name: name, observer: o}
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return &slogHistogram{name: name, observer: o}
}

type slogCounter struct {
	name     string
	observer *Observer
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	total := c.observer.metrics.add(c.name, value)
	logAttrs := toSlogAttrs(c.name, "metric.counter", attrs)
	logAttrs = append(logAttrs, slog.Int64("value", value), slog.Int64("total", total))
	c.observer.logger.LogAttrs(ctx, slog.LevelDebug, "counter", logAttrs...)
}

type slogHistogram struct {
	name     string
	observer *Observer
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	logAttrs := toSlogAttrs(h.name, "metric.histogram", attrs)
	logAttrs = append(logAttrs, slog.Float64("value", value))
	h.observer.logger.LogAttrs(ctx, slog.LevelDebug, "histogram", logAttrs...)
}

// --- LOGGING ---

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug-4, msg, toSlogAttrs("", "", attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlogAttrs("", "", attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlogAttrs("", "", attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlogAttrs("", "", attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlogAttrs("", "", attrs)...)
}

// toSlogAttrs converts observability attributes to slog attributes, tagging
// the span and event names when present.
func toSlogAttrs(span, event string, attrs []observability.Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs)+2)
	if span != "" {
		out = append(out, slog.String("span", span))
	}
	if event != "" {
		out = append(out, slog.String("event", event))
	}
	for _, attr := range attrs {
		out = append(out, slog.Any(attr.Key, attr.Value))
	}
	return out
}
