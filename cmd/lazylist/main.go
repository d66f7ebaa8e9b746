// Package main provides lazylist, a demo that scrolls a lazy list over a
// simulated or SQLite backend until both ends of the sequence are known.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stdout, os.Stderr, os.Args[1:]))
}
