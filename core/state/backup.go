package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// Snapshot describes one backup node. Snapshots form a tree rooted at full
// snapshots (ParentID == ""); an incremental snapshot's Entries holds only
// the scopes/keys that changed since its parent.
type Snapshot struct {
	ID        string
	ParentID  string
	Scopes    []Scope
	Entries   map[string]map[string]Entry // scope prefix -> key -> entry
	ByteSize  int64
	EntryCount int
	CreatedAt time.Time
	Hash      string
}

// BackupStore persists and retrieves Snapshot trees. A real deployment
// typically backs this with the same durable store as the state backend
// itself; see backends/inmem for an in-process reference implementation.
type BackupStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (Snapshot, bool, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// Backupper creates and restores backups of a Store across an explicit set
// of scopes (the state contract has no primitive to enumerate every scope
// ever used, so callers declare which scopes a backup should cover).
type Backupper struct {
	store  Store
	backup BackupStore
	idGen  func() string
}

// NewBackupper constructs a Backupper over store, persisting snapshots to
// backup. idGen generates snapshot ids; callers typically pass
// github.com/google/uuid's uuid.NewString.
func NewBackupper(store Store, backup BackupStore, idGen func() string) *Backupper {
	return &Backupper{store: store, backup: backup, idGen: idGen}
}

// CreateBackup snapshots the given scopes. When incremental is true and
// parentID names an existing full-snapshot ancestor, only entries that
// differ from the parent's view are recorded.
func (b *Backupper) CreateBackup(ctx context.Context, scopes []Scope, incremental bool, parentID string) (Snapshot, error) {
	entries := make(map[string]map[string]Entry, len(scopes))
	count := 0
	for _, scope := range scopes {
		all, err := b.store.GetAllInScope(ctx, scope)
		if err != nil {
			return Snapshot{}, coreerrors.Storage("create_backup", fmt.Sprintf("read scope %s", scope), err)
		}
		entries[scope.Prefix()] = all
		count += len(all)
	}

	if incremental && parentID != "" {
		parent, ok, err := b.backup.LoadSnapshot(ctx, parentID)
		if err != nil {
			return Snapshot{}, coreerrors.Storage("create_backup", "load parent snapshot", err)
		}
		if ok {
			entries, count = diffEntries(parent.Entries, entries)
		}
	} else {
		parentID = ""
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return Snapshot{}, coreerrors.Wrap(coreerrors.KindSerialization, "encode snapshot", err)
	}
	sum := sha256.Sum256(raw)

	snap := Snapshot{
		ID:         b.idGen(),
		ParentID:   parentID,
		Scopes:     scopes,
		Entries:    entries,
		ByteSize:   int64(len(raw)),
		EntryCount: count,
		CreatedAt:  time.Now().UTC(),
		Hash:       hex.EncodeToString(sum[:]),
	}
	if err := b.backup.SaveSnapshot(ctx, snap); err != nil {
		return Snapshot{}, coreerrors.Storage("create_backup", "persist snapshot", err)
	}
	return snap, nil
}

func diffEntries(parent, current map[string]map[string]Entry) (map[string]map[string]Entry, int) {
	out := make(map[string]map[string]Entry, len(current))
	count := 0
	for prefix, keys := range current {
		parentKeys := parent[prefix]
		changed := make(map[string]Entry)
		for key, entry := range keys {
			old, existed := parentKeys[key]
			if !existed || !entriesEqual(old, entry) {
				changed[key] = entry
				count++
			}
		}
		if len(changed) > 0 {
			out[prefix] = changed
		}
	}
	return out, count
}

func entriesEqual(a, b Entry) bool {
	aj, _ := json.Marshal(a.Value)
	bj, _ := json.Marshal(b.Value)
	return string(aj) == string(bj) && a.SchemaVersion == b.SchemaVersion
}

// ValidationReport is the result of ValidateBackup.
type ValidationReport struct {
	IsValid    bool
	Errors     []string
	EntryCount int
}

// ValidateBackup recomputes a snapshot's content hash and checks basic
// structural integrity (entry count matches for a snapshot with no parent,
// parent resolvable).
func (b *Backupper) ValidateBackup(ctx context.Context, id string) (ValidationReport, error) {
	snap, ok, err := b.backup.LoadSnapshot(ctx, id)
	if err != nil {
		return ValidationReport{}, coreerrors.Storage("validate_backup", "load snapshot", err)
	}
	if !ok {
		return ValidationReport{IsValid: false, Errors: []string{"snapshot not found"}}, nil
	}
	var errs []string
	raw, err := json.Marshal(snap.Entries)
	if err != nil {
		errs = append(errs, fmt.Sprintf("encode snapshot: %v", err))
	} else {
		sum := sha256.Sum256(raw)
		if hex.EncodeToString(sum[:]) != snap.Hash {
			errs = append(errs, "content hash mismatch")
		}
	}
	if snap.ParentID != "" {
		if _, ok, err := b.backup.LoadSnapshot(ctx, snap.ParentID); err != nil {
			errs = append(errs, fmt.Sprintf("resolve parent: %v", err))
		} else if !ok {
			errs = append(errs, "parent snapshot missing")
		}
	}
	count := 0
	for _, keys := range snap.Entries {
		count += len(keys)
	}
	if count != snap.EntryCount && snap.ParentID == "" {
		errs = append(errs, "entry count mismatch")
	}
	return ValidationReport{IsValid: len(errs) == 0, Errors: errs, EntryCount: count}, nil
}

// RestoreOptions configures RestoreBackup.
type RestoreOptions struct {
	VerifyChecksums bool
	BackupCurrent   bool
	TargetVersion   *uint32
	DryRun          bool
	Migrator        *Migrator // used only when TargetVersion is set
}

// RestoreResult reports what RestoreBackup did.
type RestoreResult struct {
	RestoredScopes   []Scope
	PreRestoreBackup string // snapshot id, when BackupCurrent was requested
	DryRun           bool
}

// RestoreBackup walks the snapshot chain from id to its full-snapshot
// ancestor and replays entries in order (oldest first), so incremental
// layers apply on top of their full base.
func (b *Backupper) RestoreBackup(ctx context.Context, id string, opts RestoreOptions) (RestoreResult, error) {
	chain, err := b.resolveChain(ctx, id)
	if err != nil {
		return RestoreResult{}, err
	}
	if opts.VerifyChecksums {
		for _, snap := range chain {
			report, err := b.ValidateBackup(ctx, snap.ID)
			if err != nil {
				return RestoreResult{}, err
			}
			if !report.IsValid {
				return RestoreResult{}, coreerrors.Storage("restore_backup", fmt.Sprintf("snapshot %s failed validation: %v", snap.ID, report.Errors), nil)
			}
		}
	}

	result := RestoreResult{DryRun: opts.DryRun}
	if opts.BackupCurrent {
		scopes := chain[len(chain)-1].Scopes
		preSnap, err := b.CreateBackup(ctx, scopes, false, "")
		if err != nil {
			return RestoreResult{}, err
		}
		result.PreRestoreBackup = preSnap.ID
	}
	if opts.DryRun {
		return result, nil
	}

	merged := make(map[string]map[string]Entry)
	scopeSet := make(map[ScopeTag]map[string]Scope)
	for _, snap := range chain {
		for prefix, keys := range snap.Entries {
			if merged[prefix] == nil {
				merged[prefix] = make(map[string]Entry)
			}
			for k, v := range keys {
				merged[prefix][k] = v
			}
		}
		for _, sc := range snap.Scopes {
			if scopeSet[sc.Tag] == nil {
				scopeSet[sc.Tag] = make(map[string]Scope)
			}
			scopeSet[sc.Tag][sc.ID] = sc
		}
	}

	var restored []Scope
	for _, byID := range scopeSet {
		for _, sc := range byID {
			restored = append(restored, sc)
		}
	}
	sort.Slice(restored, func(i, j int) bool { return restored[i].String() < restored[j].String() })

	for _, sc := range restored {
		keys := merged[sc.Prefix()]
		for key, entry := range keys {
			value := entry.Value
			if opts.TargetVersion != nil && opts.Migrator != nil && entry.SchemaVersion != *opts.TargetVersion {
				migrated, err := opts.Migrator.Apply(ctx, entry.SchemaVersion, *opts.TargetVersion, entry.Value)
				if err != nil {
					return RestoreResult{}, err
				}
				value = migrated
			}
			if err := b.store.Set(ctx, sc, key, value); err != nil {
				return RestoreResult{}, coreerrors.Storage("restore_backup", fmt.Sprintf("restore key %q in scope %s", key, sc), err)
			}
		}
	}
	result.RestoredScopes = restored
	return result, nil
}

func (b *Backupper) resolveChain(ctx context.Context, id string) ([]Snapshot, error) {
	var chain []Snapshot
	current := id
	for current != "" {
		snap, ok, err := b.backup.LoadSnapshot(ctx, current)
		if err != nil {
			return nil, coreerrors.Storage("restore_backup", "load snapshot", err)
		}
		if !ok {
			return nil, coreerrors.Storage("restore_backup", fmt.Sprintf("snapshot %q not found", current), nil)
		}
		chain = append(chain, snap)
		current = snap.ParentID
	}
	// chain is leaf-to-root; reverse to root-to-leaf so incremental layers
	// replay in creation order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// RetentionPolicy bounds how many snapshots, and how old, Prune keeps.
type RetentionPolicy struct {
	MaxCount int
	MaxAge   time.Duration
}

// Prune deletes snapshots beyond the retention policy, preserving the
// newest-first ordering (the most recent MaxCount snapshots within MaxAge
// survive). Full snapshots that are still the parent ancestor of a kept
// incremental snapshot are preserved regardless of age/count, since deleting
// them would orphan the chain.
func (b *Backupper) Prune(ctx context.Context, policy RetentionPolicy) ([]string, error) {
	snaps, err := b.backup.ListSnapshots(ctx)
	if err != nil {
		return nil, coreerrors.Storage("prune", "list snapshots", err)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.After(snaps[j].CreatedAt) })

	keep := make(map[string]bool, len(snaps))
	now := time.Now().UTC()
	for i, snap := range snaps {
		withinCount := policy.MaxCount <= 0 || i < policy.MaxCount
		withinAge := policy.MaxAge <= 0 || now.Sub(snap.CreatedAt) <= policy.MaxAge
		if withinCount && withinAge {
			keep[snap.ID] = true
		}
	}
	// Protect ancestors of kept snapshots.
	byID := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		byID[s.ID] = s
	}
	for id, k := range keep {
		if !k {
			continue
		}
		parent := byID[id].ParentID
		for parent != "" {
			keep[parent] = true
			parent = byID[parent].ParentID
		}
	}

	var deleted []string
	for _, snap := range snaps {
		if !keep[snap.ID] {
			if err := b.backup.DeleteSnapshot(ctx, snap.ID); err != nil {
				return deleted, coreerrors.Storage("prune", fmt.Sprintf("delete snapshot %s", snap.ID), err)
			}
			deleted = append(deleted, snap.ID)
		}
	}
	return deleted, nil
}
