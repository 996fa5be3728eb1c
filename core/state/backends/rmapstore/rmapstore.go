// Package rmapstore implements a distributed state.Base backend on top of a
// Redis-backed replicated map, grounded on the teacher's
// registry/store/replicated package: a narrow Map interface satisfied by
// *rmap.Map from goa.design/pulse/rmap, kept here to stay unit-testable
// without Redis and to avoid coupling callers to the concrete Pulse type.
// Values are JSON-encoded strings, since rmap.Map stores string values.
package rmapstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
	"github.com/lexlapax/rs-llmspell-sub006/core/state"
)

// Map is the minimal replicated-map contract this backend needs. It is
// satisfied by *rmap.Map from goa.design/pulse/rmap.
type Map interface {
	Delete(ctx context.Context, key string) (string, error)
	Get(key string) (string, bool)
	Keys() []string
	Set(ctx context.Context, key, value string) (string, error)
}

// Store is a replicated-map-backed state.Base implementation.
type Store struct {
	m      Map
	prefix string
}

var _ state.Base = (*Store)(nil)

// New constructs a Store over m. prefix namespaces every key this store
// writes, so a shared rmap instance can host multiple stores without
// collision; pass "" to use the whole map.
func New(m Map, prefix string) *Store {
	return &Store{m: m, prefix: prefix}
}

type document struct {
	Value         any       `json:"value"`
	SchemaVersion uint32    `json:"schema_version"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Store) mapKey(scope state.Scope, key string) string {
	return s.prefix + scope.StorageKey(key)
}

func (s *Store) Set(ctx context.Context, scope state.Scope, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := document{Value: value, SchemaVersion: 1, UpdatedAt: time.Now().UTC()}
	raw, err := json.Marshal(doc)
	if err != nil {
		return coreerrors.Wrap(coreerrors.KindSerialization, "encode rmap entry", err)
	}
	if _, err := s.m.Set(ctx, s.mapKey(scope, key), string(raw)); err != nil {
		return coreerrors.Storage("set", "rmap set failed", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, scope state.Scope, key string) (state.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return state.Entry{}, false, err
	}
	raw, ok := s.m.Get(s.mapKey(scope, key))
	if !ok {
		return state.Entry{}, false, nil
	}
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return state.Entry{}, false, coreerrors.Wrap(coreerrors.KindSerialization, "decode rmap entry", err)
	}
	return state.Entry{Value: doc.Value, SchemaVersion: doc.SchemaVersion, UpdatedAt: doc.UpdatedAt}, true, nil
}

func (s *Store) Delete(ctx context.Context, scope state.Scope, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.m.Delete(ctx, s.mapKey(scope, key)); err != nil {
		return coreerrors.Storage("delete", "rmap delete failed", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, scope state.Scope, key string) (bool, error) {
	_, ok, err := s.Get(ctx, scope, key)
	return ok, err
}

func (s *Store) ListKeys(ctx context.Context, scope state.Scope) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := s.prefix + scope.Prefix()
	var keys []string
	for _, k := range s.m.Keys() {
		if trimmed, ok := strings.CutPrefix(k, prefix); ok {
			keys = append(keys, trimmed)
		}
	}
	return keys, nil
}

func (s *Store) ClearScope(ctx context.Context, scope state.Scope) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	prefix := s.prefix + scope.Prefix()
	count := 0
	for _, k := range s.m.Keys() {
		if strings.HasPrefix(k, prefix) {
			if _, err := s.m.Delete(ctx, k); err != nil {
				return count, coreerrors.Storage("clear_scope", fmt.Sprintf("rmap delete key %q", k), err)
			}
			count++
		}
	}
	return count, nil
}

func (s *Store) GetAllInScope(ctx context.Context, scope state.Scope) (map[string]state.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := s.prefix + scope.Prefix()
	out := make(map[string]state.Entry)
	for _, k := range s.m.Keys() {
		trimmed, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		raw, ok := s.m.Get(k)
		if !ok {
			continue
		}
		var doc document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, coreerrors.Wrap(coreerrors.KindSerialization, fmt.Sprintf("decode rmap entry %q", k), err)
		}
		out[trimmed] = state.Entry{Value: doc.Value, SchemaVersion: doc.SchemaVersion, UpdatedAt: doc.UpdatedAt}
	}
	return out, nil
}
