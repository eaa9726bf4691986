package progress

import (
	"context"
	"sync"

	"github.com/aretw0/spindle/pkg/domain"
)

// Handler consumes node events.
type Handler interface {
	Handle(ctx context.Context, e *domain.NodeEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e *domain.NodeEvent) error

func (f HandlerFunc) Handle(ctx context.Context, e *domain.NodeEvent) error { return f(ctx, e) }

// Hooks delivers node events to h one at a time. Nodes of a layer finish
// concurrently, so handlers never see interleaved calls.
// Handler errors go to onErr when it is not nil.
func Hooks(h Handler, onErr func(error)) domain.LifecycleHooks {
	var mu sync.Mutex
	deliver := func(ctx context.Context, e *domain.NodeEvent) {
		mu.Lock()
		defer mu.Unlock()
		if err := h.Handle(ctx, e); err != nil && onErr != nil {
			onErr(err)
		}
	}
	return domain.LifecycleHooks{
		OnNodeStart:  deliver,
		OnNodeFinish: deliver,
	}
}

// Combine calls every hook set in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var starts, finishes []func(context.Context, *domain.NodeEvent)
	for _, h := range hooks {
		if h.OnNodeStart != nil {
			starts = append(starts, h.OnNodeStart)
		}
		if h.OnNodeFinish != nil {
			finishes = append(finishes, h.OnNodeFinish)
		}
	}
	return domain.LifecycleHooks{
		OnNodeStart:  fanOut(starts),
		OnNodeFinish: fanOut(finishes),
	}
}

func fanOut(fns []func(context.Context, *domain.NodeEvent)) func(context.Context, *domain.NodeEvent) {
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, e *domain.NodeEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}
