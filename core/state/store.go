// Package state implements the scoped, versioned key/value substrate (C1):
// the primitive and extended store contract, observers, transactions,
// schema migration, and backup/restore. The package defines the contract as
// interfaces over the Base primitives; see backends/inmem, backends/mongostore,
// and backends/rmapstore for concrete implementations, and Observable/Extend
// in this package for the generic wrapping that turns a Base into a full Store.
package state

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// Entry is a single stored value plus its versioning metadata.
type Entry struct {
	Value         any
	SchemaVersion uint32
	UpdatedAt     time.Time
}

// Base is the minimal, required contract every backend implements: the
// primitive operations state.md calls out as the Contract. Backends that
// can do better than the naive default (atomic increment, true
// compare-and-swap) should additionally implement Incrementer, CASer, and/or
// SetIfAbsenter; Extend detects and uses them.
type Base interface {
	Set(ctx context.Context, scope Scope, key string, value any) error
	Get(ctx context.Context, scope Scope, key string) (Entry, bool, error)
	Delete(ctx context.Context, scope Scope, key string) error
	Exists(ctx context.Context, scope Scope, key string) (bool, error)
	ListKeys(ctx context.Context, scope Scope) ([]string, error)
	ClearScope(ctx context.Context, scope Scope) (int, error)
	GetAllInScope(ctx context.Context, scope Scope) (map[string]Entry, error)
}

// CopyMover is implemented by Base implementations that can copy/move
// without a default (non-atomic) fallback. Extend falls back to
// get-all-then-set-each when a backend doesn't implement this.
type CopyMover interface {
	CopyScope(ctx context.Context, from, to Scope) error
	MoveScope(ctx context.Context, from, to Scope) error
}

// Incrementer is an optional capability for atomic read-modify-write
// increments. Backends that can't offer atomicity should not implement this;
// Extend's default implementation documents the race it accepts instead.
type Incrementer interface {
	Increment(ctx context.Context, scope Scope, key string, delta int64) (int64, error)
}

// CASer is an optional capability for atomic compare-and-swap.
type CASer interface {
	CompareAndSwap(ctx context.Context, scope Scope, key string, expected, newValue any) (bool, error)
}

// SetIfAbsenter is an optional capability for atomic set-if-not-exists.
type SetIfAbsenter interface {
	SetIfNotExists(ctx context.Context, scope Scope, key string, value any) (bool, error)
}

// TTLSetter is an optional capability for backends with native expiry.
// Backends without native TTL support should not implement it; Extend's
// default SetWithTTL then stores the value without expiry and documents that
// the backend ignores TTL, per the contract's allowance.
type TTLSetter interface {
	SetWithTTL(ctx context.Context, scope Scope, key string, value any, ttl time.Duration) error
}

// Store is the full contract (primitives + extended operations) that
// consumers of the state substrate program against.
type Store interface {
	Base
	CopyMover

	SetBatch(ctx context.Context, scope Scope, values map[string]any) error
	GetBatch(ctx context.Context, scope Scope, keys []string) (map[string]Entry, error)
	DeleteBatch(ctx context.Context, scope Scope, keys []string) error
	SetWithTTL(ctx context.Context, scope Scope, key string, value any, ttl time.Duration) error
	Increment(ctx context.Context, scope Scope, key string, delta int64) (int64, error)
	SetIfNotExists(ctx context.Context, scope Scope, key string, value any) (bool, error)
	CompareAndSwap(ctx context.Context, scope Scope, key string, expected, newValue any) (bool, error)
}

// SetTyped round-trips v through a JSON codec and stores it. Decode failures
// when later reading surface as a KindSerialization error, never as a silent
// miss, see GetTyped.
func SetTyped[T any](ctx context.Context, s Base, scope Scope, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return coreerrors.Wrap(coreerrors.KindSerialization, "encode typed value", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return coreerrors.Wrap(coreerrors.KindSerialization, "normalize typed value", err)
	}
	return s.Set(ctx, scope, key, decoded)
}

// GetTyped reads the entry at (scope, key) and decodes it into T. A missing
// entry returns ok=false with a nil error, matching the untyped contract's
// Ok(None) semantics; a value that fails to decode as T returns a
// KindSerialization error rather than ok=false.
func GetTyped[T any](ctx context.Context, s Base, scope Scope, key string) (T, bool, error) {
	var zero T
	entry, ok, err := s.Get(ctx, scope, key)
	if err != nil || !ok {
		return zero, ok, err
	}
	raw, err := json.Marshal(entry.Value)
	if err != nil {
		return zero, true, coreerrors.Wrap(coreerrors.KindSerialization, "re-encode stored value", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, true, coreerrors.Wrap(coreerrors.KindSerialization, "decode typed value", err)
	}
	return out, true, nil
}
