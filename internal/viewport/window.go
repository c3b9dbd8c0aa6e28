package viewport

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// Placement is a materialized item positioned at its absolute offset.
type Placement[K comparable, V any] struct {
	Index    int
	Key      K
	Position float64
	Value    V
}

// WindowConfig configures a [Window].
type WindowConfig[K comparable, V any] struct {
	// Key returns the stable identity of the item at index. Keys must be
	// unique within a collection.
	Key func(index int) K

	// Mount materializes the item at index. Any asynchronous work it starts
	// must be bound to ctx, which is cancelled when the item is unmounted.
	Mount func(ctx context.Context, index int, key K) V

	// Unmount releases a materialized item. Optional.
	Unmount func(index int, key K, v V)
}

type mounted[V any] struct {
	index  int
	value  V
	cancel context.CancelFunc
}

// Window keeps exactly the items of the latest [VisibleRange] materialized.
//
// A Window is owned by one surface and driven by one event stream; it is not
// safe for concurrent use.
type Window[K comparable, V any] struct {
	id      string
	cfg     WindowConfig[K, V]
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[K]*mounted[V]
	last    VisibleRange
}

// NewWindow creates a [Window]. Mount contexts derive from ctx.
func NewWindow[K comparable, V any](ctx context.Context, cfg WindowConfig[K, V]) *Window[K, V] {
	if cfg.Key == nil {
		panic("viewport: WindowConfig.Key is required")
	}
	if cfg.Mount == nil {
		panic("viewport: WindowConfig.Mount is required")
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Window[K, V]{
		id:      uuid.NewString(),
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[K]*mounted[V]),
	}
}

// IndexKey is a [WindowConfig.Key] that uses the index as identity.
func IndexKey(index int) int {
	return index
}

// ID returns the unique id of this virtualization session.
func (w *Window[K, V]) ID() string {
	return w.id
}

// Sync materializes exactly the items in r, unmounts every other item and
// returns the placements in index order. Items whose key stays in range keep
// their materialized value, even if their index changed.
func (w *Window[K, V]) Sync(r VisibleRange, l Layout) []Placement[K, V] {
	keys := make([]K, 0, r.Len())
	want := make(map[K]int, r.Len())
	for i := range r.Indices() {
		k := w.cfg.Key(i)
		if _, dup := want[k]; dup {
			continue
		}
		want[k] = i
		keys = append(keys, k)
	}

	var unmounted, mountedNew int
	for k, e := range w.entries {
		if _, ok := want[k]; ok {
			continue
		}
		w.release(k, e)
		unmounted++
	}

	placements := make([]Placement[K, V], 0, len(keys))
	for _, k := range keys {
		idx := want[k]
		e, ok := w.entries[k]
		if !ok {
			ctx, cancel := context.WithCancel(w.ctx)
			e = &mounted[V]{cancel: cancel}
			e.value = w.cfg.Mount(ctx, idx, k)
			w.entries[k] = e
			mountedNew++
		}
		e.index = idx
		placements = append(placements, Placement[K, V]{
			Index:    idx,
			Key:      k,
			Position: l.Position(idx),
			Value:    e.value,
		})
	}

	if r != w.last || unmounted > 0 || mountedNew > 0 {
		slog.Debug("Window synced",
			"window", w.id,
			"range", r.String(),
			"mounted", mountedNew,
			"unmounted", unmounted,
		)
	}
	w.last = r
	return placements
}

// Placements returns the items materialized by the last [Window.Sync] in
// index order, positioned with l. It never mounts or unmounts.
func (w *Window[K, V]) Placements(l Layout) []Placement[K, V] {
	placements := make([]Placement[K, V], 0, len(w.entries))
	for k, e := range w.entries {
		placements = append(placements, Placement[K, V]{
			Index:    e.index,
			Key:      k,
			Position: l.Position(e.index),
			Value:    e.value,
		})
	}
	slices.SortFunc(placements, func(a, b Placement[K, V]) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return placements
}

// Range returns the range of the last [Window.Sync].
func (w *Window[K, V]) Range() VisibleRange {
	return w.last
}

// Lookup returns the materialized value for key.
func (w *Window[K, V]) Lookup(key K) (V, bool) {
	e, ok := w.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Mounted returns the number of materialized items.
func (w *Window[K, V]) Mounted() int {
	return len(w.entries)
}

// Invalidate unmounts every item. The next [Window.Sync] materializes the
// range from scratch.
func (w *Window[K, V]) Invalidate() {
	for k, e := range w.entries {
		w.release(k, e)
	}
	w.last = VisibleRange{}
}

// Close unmounts every item and cancels the session context.
func (w *Window[K, V]) Close() {
	w.Invalidate()
	w.cancel()
}

func (w *Window[K, V]) release(k K, e *mounted[V]) {
	e.cancel()
	if w.cfg.Unmount != nil {
		w.cfg.Unmount(e.index, k, e.value)
	}
	delete(w.entries, k)
}
