// Package shutdown turns interrupt signals into context cancellation.
//
// The first SIGINT or SIGTERM cancels the context, which aborts in-flight
// API requests and lets the CLI unwind and close its credential store. If
// the process is still running after the grace period, or a second signal
// arrives, it exits with status 130.
//
//	h := shutdown.NewHandler(shutdown.DefaultGrace, log)
//	ctx, stop := h.Notify(context.Background())
//	defer stop()
package shutdown
