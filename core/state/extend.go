package state

import (
	"context"
	"fmt"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// Extend wraps a Base implementation with the extended operations (batch,
// TTL, increment, set-if-not-exists, compare-and-swap) and observer
// dispatch, producing a full Store. Backends implement only Base (plus
// whichever optional capability interfaces they can do atomically); Extend
// supplies the rest per the contract's "default-implemented in terms of the
// primitives" rule.
func Extend(base Base, registry *Registry, sink ErrorSink) Store {
	if sink == nil {
		sink = DiscardErrors
	}
	return &extended{base: base, registry: registry, sink: sink}
}

type extended struct {
	base     Base
	registry *Registry
	sink     ErrorSink
}

func (e *extended) observer() Observer {
	if e.registry == nil {
		return nil
	}
	return dispatchObserver{registry: e.registry, sink: e.sink}
}

// dispatchObserver adapts Registry's per-event Dispatch* methods to the
// Observer interface so extended operations can notify through the same
// Registry a backend's own Set/Delete/ClearScope use.
type dispatchObserver struct {
	registry *Registry
	sink     ErrorSink
}

func (d dispatchObserver) OnStateSet(ctx context.Context, scope Scope, key string, old, new Entry, hadOld bool) {
	d.registry.DispatchSet(ctx, scope, key, old, new, hadOld)
}
func (d dispatchObserver) OnStateDeleted(ctx context.Context, scope Scope, key string, old Entry) {
	d.registry.DispatchDelete(ctx, scope, key, old)
}
func (d dispatchObserver) OnScopeCleared(ctx context.Context, scope Scope, count int) {
	d.registry.DispatchClear(ctx, scope, count)
}

func (e *extended) Set(ctx context.Context, scope Scope, key string, value any) error {
	old, hadOld, err := e.base.Get(ctx, scope, key)
	if err != nil {
		return err
	}
	if err := e.base.Set(ctx, scope, key, value); err != nil {
		return err
	}
	if obs := e.observer(); obs != nil {
		new, _, err := e.base.Get(ctx, scope, key)
		if err != nil {
			e.sink.ObserverError(ctx, scope, err)
			return nil
		}
		obs.OnStateSet(ctx, scope, key, old, new, hadOld)
	}
	return nil
}

func (e *extended) Get(ctx context.Context, scope Scope, key string) (Entry, bool, error) {
	return e.base.Get(ctx, scope, key)
}

func (e *extended) Delete(ctx context.Context, scope Scope, key string) error {
	old, hadOld, err := e.base.Get(ctx, scope, key)
	if err != nil {
		return err
	}
	if !hadOld {
		return nil
	}
	if err := e.base.Delete(ctx, scope, key); err != nil {
		return err
	}
	if obs := e.observer(); obs != nil {
		obs.OnStateDeleted(ctx, scope, key, old)
	}
	return nil
}

func (e *extended) Exists(ctx context.Context, scope Scope, key string) (bool, error) {
	return e.base.Exists(ctx, scope, key)
}

func (e *extended) ListKeys(ctx context.Context, scope Scope) ([]string, error) {
	return e.base.ListKeys(ctx, scope)
}

func (e *extended) ClearScope(ctx context.Context, scope Scope) (int, error) {
	count, err := e.base.ClearScope(ctx, scope)
	if err != nil {
		return 0, err
	}
	if obs := e.observer(); obs != nil {
		obs.OnScopeCleared(ctx, scope, count)
	}
	return count, nil
}

func (e *extended) GetAllInScope(ctx context.Context, scope Scope) (map[string]Entry, error) {
	return e.base.GetAllInScope(ctx, scope)
}

func (e *extended) CopyScope(ctx context.Context, from, to Scope) error {
	if cm, ok := e.base.(CopyMover); ok {
		return cm.CopyScope(ctx, from, to)
	}
	entries, err := e.base.GetAllInScope(ctx, from)
	if err != nil {
		return err
	}
	for key, entry := range entries {
		if err := e.Set(ctx, to, key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

func (e *extended) MoveScope(ctx context.Context, from, to Scope) error {
	if cm, ok := e.base.(CopyMover); ok {
		return cm.MoveScope(ctx, from, to)
	}
	if err := e.CopyScope(ctx, from, to); err != nil {
		return err
	}
	_, err := e.ClearScope(ctx, from)
	return err
}

func (e *extended) SetBatch(ctx context.Context, scope Scope, values map[string]any) error {
	for key, value := range values {
		if err := e.Set(ctx, scope, key, value); err != nil {
			return fmt.Errorf("set_batch key %q: %w", key, err)
		}
	}
	return nil
}

func (e *extended) GetBatch(ctx context.Context, scope Scope, keys []string) (map[string]Entry, error) {
	out := make(map[string]Entry, len(keys))
	for _, key := range keys {
		entry, ok, err := e.base.Get(ctx, scope, key)
		if err != nil {
			return nil, fmt.Errorf("get_batch key %q: %w", key, err)
		}
		if ok {
			out[key] = entry
		}
	}
	return out, nil
}

func (e *extended) DeleteBatch(ctx context.Context, scope Scope, keys []string) error {
	for _, key := range keys {
		if err := e.Delete(ctx, scope, key); err != nil {
			return fmt.Errorf("delete_batch key %q: %w", key, err)
		}
	}
	return nil
}

// SetWithTTL delegates to the backend's native TTLSetter when available.
// Backends without one simply store the value with no expiry; callers must
// not assume TTL is honored unless the backend documents it.
func (e *extended) SetWithTTL(ctx context.Context, scope Scope, key string, value any, ttl time.Duration) error {
	if setter, ok := e.base.(TTLSetter); ok {
		return setter.SetWithTTL(ctx, scope, key, value, ttl)
	}
	return e.Set(ctx, scope, key, value)
}

// Increment delegates to the backend's native Incrementer when available.
// The fallback path is not atomic across concurrent callers; backends that
// need concurrent-safe increments should implement Incrementer themselves.
func (e *extended) Increment(ctx context.Context, scope Scope, key string, delta int64) (int64, error) {
	if inc, ok := e.base.(Incrementer); ok {
		return inc.Increment(ctx, scope, key, delta)
	}
	entry, ok, err := e.base.Get(ctx, scope, key)
	if err != nil {
		return 0, err
	}
	var current int64
	if ok {
		n, isInt := toInt64(entry.Value)
		if !isInt {
			return 0, coreerrors.New(coreerrors.KindSerialization, fmt.Sprintf("increment: value at key %q is not integer-shaped", key))
		}
		current = n
	}
	next := current + delta
	if err := e.Set(ctx, scope, key, next); err != nil {
		return 0, err
	}
	return next, nil
}

// SetIfNotExists delegates to the backend's native SetIfAbsenter when
// available. The fallback path has a check-then-act race under concurrent
// callers; backends needing atomicity should implement SetIfAbsenter.
func (e *extended) SetIfNotExists(ctx context.Context, scope Scope, key string, value any) (bool, error) {
	if setter, ok := e.base.(SetIfAbsenter); ok {
		return setter.SetIfNotExists(ctx, scope, key, value)
	}
	exists, err := e.base.Exists(ctx, scope, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := e.Set(ctx, scope, key, value); err != nil {
		return false, err
	}
	return true, nil
}

// CompareAndSwap delegates to the backend's native CASer when available.
// The fallback path has a check-then-act race under concurrent callers;
// backends needing true atomicity should implement CASer.
func (e *extended) CompareAndSwap(ctx context.Context, scope Scope, key string, expected, newValue any) (bool, error) {
	if cas, ok := e.base.(CASer); ok {
		return cas.CompareAndSwap(ctx, scope, key, expected, newValue)
	}
	entry, ok, err := e.base.Get(ctx, scope, key)
	if err != nil {
		return false, err
	}
	if !ok {
		if expected != nil {
			return false, nil
		}
	} else if !valuesEqual(entry.Value, expected) {
		return false, nil
	}
	if err := e.Set(ctx, scope, key, newValue); err != nil {
		return false, err
	}
	return true, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func valuesEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
