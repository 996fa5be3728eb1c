package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// Transactor is an optional capability. Implementations advertise
// SupportsTransactions() and, when true, bracket a batch of
// SetInTransaction/DeleteInTransaction calls inside Begin/Commit/Rollback.
type Transactor interface {
	SupportsTransactions() bool
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an open transaction. Writes made through it are invisible to other
// readers until Commit, and discarded entirely on Rollback. Concurrent
// transactions use last-committer-wins; CompareAndSwap on the underlying
// Store remains the recommended primitive for concurrent writers that need
// stronger guarantees.
type Tx interface {
	SetInTransaction(scope Scope, key string, value any) error
	DeleteInTransaction(scope Scope, key string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// MemTransactor adds last-committer-wins transactions to any Base store. It
// is the transaction implementation shared by backends that have no native
// transaction primitive of their own (the in-memory backend uses it
// directly; a backend with real transactions, e.g. Mongo sessions, should
// implement Transactor itself instead of wrapping this).
type MemTransactor struct {
	mu   sync.Mutex
	base Base
}

// NewMemTransactor constructs a MemTransactor over base.
func NewMemTransactor(base Base) *MemTransactor {
	return &MemTransactor{base: base}
}

// SupportsTransactions implements Transactor.
func (*MemTransactor) SupportsTransactions() bool { return true }

// Begin implements Transactor.
func (m *MemTransactor) Begin(ctx context.Context) (Tx, error) {
	return &memTx{owner: m, writes: make(map[string]txWrite)}, nil
}

type txWrite struct {
	scope   Scope
	key     string
	value   any
	deleted bool
}

type memTx struct {
	owner  *MemTransactor
	mu     sync.Mutex
	writes map[string]txWrite
	done   bool
}

func (t *memTx) SetInTransaction(scope Scope, key string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return coreerrors.New(coreerrors.KindStorage, "transaction already closed")
	}
	t.writes[scope.StorageKey(key)] = txWrite{scope: scope, key: key, value: value}
	return nil
}

func (t *memTx) DeleteInTransaction(scope Scope, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return coreerrors.New(coreerrors.KindStorage, "transaction already closed")
	}
	t.writes[scope.StorageKey(key)] = txWrite{scope: scope, key: key, deleted: true}
	return nil
}

// Commit applies every buffered write under the transactor's lock, so a
// concurrently committing transaction either fully precedes or fully
// follows this one (last-committer-wins at the whole-transaction level).
func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	writes := t.writes
	t.done = true
	t.mu.Unlock()

	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	for _, w := range writes {
		var err error
		if w.deleted {
			err = t.owner.base.Delete(ctx, w.scope, w.key)
		} else {
			err = t.owner.base.Set(ctx, w.scope, w.key, w.value)
		}
		if err != nil {
			return fmt.Errorf("commit key %q: %w", w.key, err)
		}
	}
	return nil
}

// Rollback discards every buffered write; nothing was ever applied to base.
func (t *memTx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.writes = nil
	return nil
}
