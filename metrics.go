package lazylist

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    fetchCounter   *prometheus.CounterVec
//	    fetchHistogram *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordFetch(op lazylist.Op, items int, d time.Duration, err error) {
//	    p.fetchCounter.WithLabelValues(string(op)).Inc()
//	    p.fetchHistogram.WithLabelValues(string(op)).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordFetch is called after each DataSource call returns.
	// items is the number of elements returned (0 or 1 for OpLoadItem),
	// err is nil if successful.
	RecordFetch(op Op, items int, duration time.Duration, err error)

	// RecordMutation is called after each applied window mutation.
	RecordMutation(op string)

	// RecordNotification is called after each change notification has been
	// delivered. latency covers queueing plus handler run time.
	RecordNotification(latency time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFetch(Op, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMutation(string)                     {}
func (NoopMetricsCollector) RecordNotification(time.Duration)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadBeforeCount   atomic.Int64
	LoadItemCount     atomic.Int64
	LoadAfterCount    atomic.Int64
	FetchErrors       atomic.Int64
	FetchedItems      atomic.Int64
	FetchTotalNanos   atomic.Int64
	MutationCount     atomic.Int64
	NotificationCount atomic.Int64
	NotificationNanos atomic.Int64
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(op Op, items int, duration time.Duration, err error) {
	switch op {
	case OpLoadBefore:
		b.LoadBeforeCount.Add(1)
	case OpLoadItem:
		b.LoadItemCount.Add(1)
	case OpLoadAfter:
		b.LoadAfterCount.Add(1)
	}
	b.FetchedItems.Add(int64(items))
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordMutation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutation(string) {
	b.MutationCount.Add(1)
}

// RecordNotification implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNotification(latency time.Duration) {
	b.NotificationCount.Add(1)
	b.NotificationNanos.Add(latency.Nanoseconds())
}

// GetStats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadBeforeCount:      b.LoadBeforeCount.Load(),
		LoadItemCount:        b.LoadItemCount.Load(),
		LoadAfterCount:       b.LoadAfterCount.Load(),
		FetchErrors:          b.FetchErrors.Load(),
		FetchedItems:         b.FetchedItems.Load(),
		FetchAvgNanos:        b.getAvgFetchNanos(),
		MutationCount:        b.MutationCount.Load(),
		NotificationCount:    b.NotificationCount.Load(),
		NotificationAvgNanos: b.getAvgNotificationNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgFetchNanos() int64 {
	count := b.LoadBeforeCount.Load() + b.LoadItemCount.Load() + b.LoadAfterCount.Load()
	if count == 0 {
		return 0
	}
	return b.FetchTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgNotificationNanos() int64 {
	count := b.NotificationCount.Load()
	if count == 0 {
		return 0
	}
	return b.NotificationNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadBeforeCount      int64
	LoadItemCount        int64
	LoadAfterCount       int64
	FetchErrors          int64
	FetchedItems         int64
	FetchAvgNanos        int64
	MutationCount        int64
	NotificationCount    int64
	NotificationAvgNanos int64
}

// Fetches returns the total number of DataSource calls.
func (s BasicMetricsStats) Fetches() int64 {
	return s.LoadBeforeCount + s.LoadItemCount + s.LoadAfterCount
}
