// Package inmem implements an in-process state.Base backend backed by a
// mutex-guarded map, grounded on the teacher's registry/store/memory
// ctx.Done()-checked, RWMutex-guarded map pattern. It implements every
// optional capability (CopyMover, Incrementer, CASer, SetIfAbsenter,
// state.BackupStore) so it can serve as the reference implementation for
// the full state contract, including atomic increment/CAS under its own
// lock rather than the lossy default fallback in state.Extend.
package inmem

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
	"github.com/lexlapax/rs-llmspell-sub006/core/state"
)

// Store is an in-memory state.Base implementation. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]state.Entry
	// expiresAt tracks SetWithTTL deadlines; entries past their deadline are
	// treated as absent by Get/Exists/ListKeys/GetAllInScope and lazily
	// reaped on next access to that key.
	expiresAt map[string]time.Time

	snapMu    sync.RWMutex
	snapshots map[string]state.Snapshot
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		entries:   make(map[string]state.Entry),
		expiresAt: make(map[string]time.Time),
		snapshots: make(map[string]state.Snapshot),
	}
}

var _ state.Base = (*Store)(nil)
var _ state.CopyMover = (*Store)(nil)
var _ state.Incrementer = (*Store)(nil)
var _ state.CASer = (*Store)(nil)
var _ state.SetIfAbsenter = (*Store)(nil)
var _ state.TTLSetter = (*Store)(nil)
var _ state.BackupStore = (*Store)(nil)

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// expired reports whether key's TTL deadline has passed. Caller must hold
// at least a read lock.
func (s *Store) expired(storageKey string) bool {
	deadline, ok := s.expiresAt[storageKey]
	return ok && time.Now().After(deadline)
}

func (s *Store) Set(ctx context.Context, scope state.Scope, key string, value any) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	storageKey := scope.StorageKey(key)
	delete(s.expiresAt, storageKey)
	s.entries[storageKey] = state.Entry{Value: value, UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) SetWithTTL(ctx context.Context, scope state.Scope, key string, value any, ttl time.Duration) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	storageKey := scope.StorageKey(key)
	s.entries[storageKey] = state.Entry{Value: value, UpdatedAt: time.Now().UTC()}
	if ttl > 0 {
		s.expiresAt[storageKey] = time.Now().Add(ttl)
	} else {
		delete(s.expiresAt, storageKey)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, scope state.Scope, key string) (state.Entry, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return state.Entry{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	storageKey := scope.StorageKey(key)
	if s.expired(storageKey) {
		return state.Entry{}, false, nil
	}
	entry, ok := s.entries[storageKey]
	return entry, ok, nil
}

func (s *Store) Delete(ctx context.Context, scope state.Scope, key string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	storageKey := scope.StorageKey(key)
	delete(s.entries, storageKey)
	delete(s.expiresAt, storageKey)
	return nil
}

func (s *Store) Exists(ctx context.Context, scope state.Scope, key string) (bool, error) {
	_, ok, err := s.Get(ctx, scope, key)
	return ok, err
}

func (s *Store) ListKeys(ctx context.Context, scope state.Scope) ([]string, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := scope.Prefix()
	var keys []string
	for storageKey := range s.entries {
		if s.expired(storageKey) {
			continue
		}
		if key, ok := trimPrefix(storageKey, prefix); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *Store) ClearScope(ctx context.Context, scope state.Scope) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := scope.Prefix()
	count := 0
	for storageKey := range s.entries {
		if _, ok := trimPrefix(storageKey, prefix); ok {
			delete(s.entries, storageKey)
			delete(s.expiresAt, storageKey)
			count++
		}
	}
	return count, nil
}

func (s *Store) GetAllInScope(ctx context.Context, scope state.Scope) (map[string]state.Entry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := scope.Prefix()
	out := make(map[string]state.Entry)
	for storageKey, entry := range s.entries {
		if s.expired(storageKey) {
			continue
		}
		if key, ok := trimPrefix(storageKey, prefix); ok {
			out[key] = entry
		}
	}
	return out, nil
}

func (s *Store) CopyScope(ctx context.Context, from, to state.Scope) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fromPrefix := from.Prefix()
	toPrefix := to.Prefix()
	for storageKey, entry := range s.entries {
		if s.expired(storageKey) {
			continue
		}
		if key, ok := trimPrefix(storageKey, fromPrefix); ok {
			s.entries[toPrefix+key] = entry
		}
	}
	return nil
}

func (s *Store) MoveScope(ctx context.Context, from, to state.Scope) error {
	if err := s.CopyScope(ctx, from, to); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fromPrefix := from.Prefix()
	for storageKey := range s.entries {
		if _, ok := trimPrefix(storageKey, fromPrefix); ok {
			delete(s.entries, storageKey)
			delete(s.expiresAt, storageKey)
		}
	}
	return nil
}

func (s *Store) Increment(ctx context.Context, scope state.Scope, key string, delta int64) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	storageKey := scope.StorageKey(key)
	var current int64
	if entry, ok := s.entries[storageKey]; ok && !s.expired(storageKey) {
		n, isInt := asInt64(entry.Value)
		if !isInt {
			return 0, coreerrors.New(coreerrors.KindSerialization, "increment: value is not integer-shaped")
		}
		current = n
	}
	next := current + delta
	s.entries[storageKey] = state.Entry{Value: next, UpdatedAt: time.Now().UTC()}
	return next, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, scope state.Scope, key string, expected, newValue any) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	storageKey := scope.StorageKey(key)
	entry, ok := s.entries[storageKey]
	if ok && s.expired(storageKey) {
		ok = false
	}
	if !ok {
		if expected != nil {
			return false, nil
		}
	} else if !deepEqual(entry.Value, expected) {
		return false, nil
	}
	s.entries[storageKey] = state.Entry{Value: newValue, UpdatedAt: time.Now().UTC()}
	return true, nil
}

func (s *Store) SetIfNotExists(ctx context.Context, scope state.Scope, key string, value any) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	storageKey := scope.StorageKey(key)
	if _, ok := s.entries[storageKey]; ok && !s.expired(storageKey) {
		return false, nil
	}
	s.entries[storageKey] = state.Entry{Value: value, UpdatedAt: time.Now().UTC()}
	delete(s.expiresAt, storageKey)
	return true, nil
}

// Transactor returns a state.Transactor bracketing writes against this
// store. Transactions use last-committer-wins semantics; see
// state.MemTransactor.
func (s *Store) Transactor() state.Transactor {
	return state.NewMemTransactor(s)
}

func trimPrefix(storageKey, prefix string) (string, bool) {
	if len(storageKey) <= len(prefix) || storageKey[:len(prefix)] != prefix {
		return "", false
	}
	return storageKey[len(prefix):], true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func deepEqual(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}

// --- state.BackupStore -------------------------------------------------

func (s *Store) SaveSnapshot(ctx context.Context, snap state.Snapshot) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, id string) (state.Snapshot, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return state.Snapshot{}, false, err
	}
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	snap, ok := s.snapshots[id]
	return snap, ok, nil
}

func (s *Store) ListSnapshots(ctx context.Context) ([]state.Snapshot, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	out := make([]state.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	delete(s.snapshots, id)
	return nil
}
