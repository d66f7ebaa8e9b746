// Package resource governs how many data-source fetches run at once and
// how fast new ones may start.
//
// # Architecture
//
//	┌───────────────────────────────────────────────┐
//	│                  Controller                   │
//	├───────────────────────┬───────────────────────┤
//	│  Concurrency (sem)    │  Dispatch rate        │
//	│                       │  (token bucket)       │
//	├───────────────────────┼───────────────────────┤
//	│  AcquireFetch         │  AcquireFetch waits   │
//	│  ReleaseFetch         │  for a token first    │
//	│  InFlight             │                       │
//	└───────────────────────┴───────────────────────┘
//
// Both limits are optional. A zero Config imposes no limit and only tracks
// the number of fetches in flight:
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentFetches: 2,
//	    FetchesPerSecond:     20,
//	})
//
//	if err := rc.AcquireFetch(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseFetch()
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
