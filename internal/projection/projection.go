// Package projection maintains locally materialized lists over live gateway
// queries. Each handle owns exactly one subscription at a time; snapshots
// replace the list wholesale and consumers pull the current state on demand.
package projection

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/gateway"
)

// Snapshot is the pull-accessible state of a projection.
type Snapshot[T any] struct {
	Items   []T
	Loading bool
	Err     error
}

// Handle is a live projection of one query shape. Not tied to any rendering
// mechanism: consumers call Current whenever they need the latest state.
type Handle[T any] struct {
	gw     gateway.Gateway
	decode func(gateway.Document) (T, error)
	logger *zap.Logger

	mu      sync.Mutex
	sub     gateway.Subscription
	gen     int
	closed  bool
	items   []T
	loading bool
	err     error
}

// Open starts a projection for the given query shape.
func Open[T any](ctx context.Context, gw gateway.Gateway, q gateway.Query, decode func(gateway.Document) (T, error), logger *zap.Logger) (*Handle[T], error) {
	h := &Handle[T]{gw: gw, decode: decode, logger: logger}
	if err := h.Reopen(ctx, q); err != nil {
		return nil, err
	}
	return h, nil
}

// Reopen switches the handle to a new query shape. The previous subscription
// is cancelled before the new one is opened, so at most one channel is ever
// live per handle. Events from the old subscription are ignored.
func (h *Handle[T]) Reopen(ctx context.Context, q gateway.Query) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	if h.sub != nil {
		h.sub.Cancel()
		h.sub = nil
	}
	h.gen++
	gen := h.gen
	h.items = nil
	h.loading = true
	h.err = nil
	h.mu.Unlock()

	sub, err := h.gw.OpenLiveQuery(ctx, q, gateway.Events{
		OnData:  func(items []gateway.Document) { h.onData(gen, items) },
		OnError: func(err error) { h.onError(gen, err) },
	})
	if err != nil {
		h.mu.Lock()
		if h.gen == gen {
			h.loading = false
			h.err = err
		}
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	if h.gen != gen || h.closed {
		// a concurrent Reopen or Close won; this subscription is stale
		h.mu.Unlock()
		sub.Cancel()
		return nil
	}
	h.sub = sub
	h.mu.Unlock()
	return nil
}

// Current returns the latest materialized state.
func (h *Handle[T]) Current() Snapshot[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := make([]T, len(h.items))
	copy(items, h.items)
	return Snapshot[T]{Items: items, Loading: h.loading, Err: h.err}
}

// Close cancels the subscription. Safe to call more than once; events
// arriving afterwards are dropped.
func (h *Handle[T]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.gen++
	sub := h.sub
	h.sub = nil
	h.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (h *Handle[T]) onData(gen int, docs []gateway.Document) {
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := h.decode(doc)
		if err != nil {
			h.logger.Warn("skipping undecodable document",
				zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		items = append(items, item)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.gen != gen || h.err != nil {
		return
	}
	h.items = items
	h.loading = false
}

func (h *Handle[T]) onError(gen int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.gen != gen {
		return
	}
	// terminal for this handle; items freeze until the consumer reopens
	h.err = err
	h.loading = false
}

// Fetch performs a one-shot read through the live-query contract: open,
// wait for the first snapshot, cancel. Used for request-scoped reads so the
// gateway surface stays limited to its five primitives.
func Fetch[T any](ctx context.Context, gw gateway.Gateway, q gateway.Query, decode func(gateway.Document) (T, error)) ([]T, error) {
	type result struct {
		docs []gateway.Document
		err  error
	}
	ch := make(chan result, 1)
	var once sync.Once

	sub, err := gw.OpenLiveQuery(ctx, q, gateway.Events{
		OnData: func(items []gateway.Document) {
			once.Do(func() { ch <- result{docs: items} })
		},
		OnError: func(err error) {
			once.Do(func() { ch <- result{err: err} })
		},
	})
	if err != nil {
		return nil, err
	}
	defer sub.Cancel()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		items := make([]T, 0, len(res.docs))
		for _, doc := range res.docs {
			item, err := decode(doc)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
}
