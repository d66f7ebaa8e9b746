// Package testutil provides testing utilities for lazylist.
//
// This package is intended for use in tests and benchmarks only.
//
// # Scripted Data Sources
//
// Script is a DataSource whose calls block until the test answers them,
// which makes fetch ordering fully deterministic:
//
//	src := testutil.NewScript[string]()
//	list := lazylist.New[string](src)
//
//	list.Read(0)
//	call := src.Next(t) // the load-after dispatched by Read
//	call.Succeed("a", "b", "c")
//
// # Random Operations
//
//	rng := testutil.NewRNG(seed)
//	pos := rng.Intn(list.Len())
package testutil
