package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/workflow"
)

// SignalContext is a context that is cancelled with workflow.ErrPaused as cause
// when the process receives SIGINT or SIGTERM, so a run stops as paused.
type SignalContext struct {
	context.Context
	cancel context.CancelCauseFunc
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that pauses on SIGINT or SIGTERM.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancelCause(parent)
	sc := &SignalContext{
		Context: ctx,
		cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.cancel(workflow.ErrPaused)
		case <-sc.Context.Done():
			// Context cancelled elsewhere
		}
		sc.Stop()
	}()

	return sc
}

// Stop releases the signal handler and the context.
func (sc *SignalContext) Stop() {
	sc.stop.Do(func() {
		signal.Stop(sc.sigCh)
		sc.cancel(context.Canceled)
	})
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// DebugHooks logs node lifecycle events at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Debug("node started", "run_id", e.RunID, "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeFinish: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.Debug("node finished", "run_id", e.RunID, "node_id", e.NodeID, "status", e.Status, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.Debug("node finished", "run_id", e.RunID, "node_id", e.NodeID, "status", e.Status, "duration", e.Duration)
		},
	}
}
