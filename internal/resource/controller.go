package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds fetch limits.
type Config struct {
	// MaxConcurrentFetches is the maximum number of data-source calls running
	// at the same time. If 0, concurrency is unlimited.
	MaxConcurrentFetches int64

	// FetchesPerSecond limits how quickly new fetches may start.
	// If 0, unlimited.
	FetchesPerSecond float64

	// Burst is the token bucket size for FetchesPerSecond.
	// If 0, defaults to 1.
	Burst int
}

// Controller bounds fetch concurrency and dispatch rate.
type Controller struct {
	// Concurrency
	fetchSem *semaphore.Weighted // nil if unlimited
	inFlight atomic.Int64

	// Rate
	limiter *rate.Limiter // nil if unlimited
}

// NewController creates a new fetch controller.
func NewController(cfg Config) *Controller {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	c := &Controller{}

	if cfg.MaxConcurrentFetches > 0 {
		c.fetchSem = semaphore.NewWeighted(cfg.MaxConcurrentFetches)
	}

	if cfg.FetchesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.FetchesPerSecond), cfg.Burst)
	}

	return c
}

// AcquireFetch waits for a rate token and then for a free fetch slot.
func (c *Controller) AcquireFetch(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if c.fetchSem != nil {
		if err := c.fetchSem.Acquire(ctx, 1); err != nil {
			return err
		}
	}

	c.inFlight.Add(1)
	return nil
}

// ReleaseFetch releases a fetch slot.
func (c *Controller) ReleaseFetch() {
	if c == nil {
		return
	}
	if c.fetchSem != nil {
		c.fetchSem.Release(1)
	}
	c.inFlight.Add(-1)
}

// InFlight returns the number of fetches currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}
