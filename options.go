package lazylist

import (
	"context"
	"log/slog"
)

type options struct {
	ctx                  context.Context
	onChanged            func()
	metricsCollector     MetricsCollector
	logger               *Logger
	maxConcurrentFetches int64
	fetchesPerSecond     float64
	fetchBurst           int
}

// Option configures List construction.
type Option func(*options)

// WithOnChanged sets the callback invoked after every applied mutation.
//
// The callback runs on a dedicated notification goroutine, one call per
// mutation, in mutation order. It may call Materialize, Read or any other
// List method; it must not call Wait or Close.
//
// Example:
//
//	list := lazylist.New[string](src, lazylist.WithOnChanged(func() {
//	    rows := list.Materialize()
//	    render(rows)
//	}))
func WithOnChanged(fn func()) Option {
	return func(o *options) {
		o.onChanged = fn
	}
}

// WithContext sets the parent context handed to DataSource calls.
// Close cancels the derived context. Defaults to context.Background().
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx == nil {
			ctx = context.Background()
		}
		o.ctx = ctx
	}
}

// WithMaxConcurrentFetches bounds the number of DataSource calls running
// at the same time. Dispatch never blocks the caller; excess fetches wait
// on their own goroutine. n <= 0 means unlimited (default).
func WithMaxConcurrentFetches(n int64) Option {
	return func(o *options) {
		o.maxConcurrentFetches = n
	}
}

// WithFetchRateLimit limits how quickly DataSource calls may start, using a
// token bucket of the given burst size. perSecond <= 0 disables limiting
// (default).
func WithFetchRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.fetchesPerSecond = perSecond
		o.fetchBurst = burst
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lazylist.BasicMetricsCollector{}
//	list := lazylist.New[string](src, lazylist.WithMetricsCollector(metrics))
//	// ... use list ...
//	stats := metrics.GetStats()
//	fmt.Printf("Fetches: %d, Avg latency: %dns\n", stats.Fetches(), stats.FetchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lazylist.NewJSONLogger(slog.LevelDebug)
//	list := lazylist.New[string](src, lazylist.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		ctx:              context.Background(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
