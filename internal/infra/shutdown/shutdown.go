package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

// DefaultGrace is how long the process may unwind after the first signal.
const DefaultGrace = 5 * time.Second

// ExitInterrupted is the exit status of a forced shutdown (128 + SIGINT).
const ExitInterrupted = 130

// Handler cancels a context on SIGINT or SIGTERM.
type Handler struct {
	grace  time.Duration
	logger logger.Logger

	// exit is os.Exit outside tests.
	exit func(code int)
}

// NewHandler creates a handler with the given grace period.
func NewHandler(grace time.Duration, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{grace: grace, logger: log, exit: os.Exit}
}

// Notify returns a context canceled on the first signal. The returned
// stop function releases the signal handler.
func (h *Handler) Notify(parent context.Context) (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, stop := h.watch(parent, sigs)
	return ctx, func() {
		signal.Stop(sigs)
		stop()
	}
}

// watch drives cancellation from sigs.
func (h *Handler) watch(parent context.Context, sigs <-chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
		cancel()
	}

	go func() {
		select {
		case sig := <-sigs:
			h.logger.Debug("interrupted, shutting down", "signal", sig.String())
			cancel()
		case <-done:
			return
		}

		timer := time.NewTimer(h.grace)
		defer timer.Stop()
		select {
		case sig := <-sigs:
			h.logger.Warn("second signal, exiting now", "signal", sig.String())
			h.exit(ExitInterrupted)
		case <-timer.C:
			h.logger.Warn("shutdown grace period exceeded, exiting", "grace", h.grace)
			h.exit(ExitInterrupted)
		case <-done:
		}
	}()

	return ctx, stop
}
