package state

import (
	"context"
	"fmt"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// MigrationFunc transforms a value from one schema version to the next,
// adjacent version.
type MigrationFunc func(value any) (any, error)

// ValidateFunc checks that a migrated value conforms to its target schema
// version.
type ValidateFunc func(value any) error

// MigrationStep is one registered (from, to) edge in the migration graph.
type MigrationStep struct {
	From     uint32
	To       uint32
	Migrate  MigrationFunc
	Validate ValidateFunc
}

// Migrator plans and applies migration chains across registered steps. The
// zero value is not usable; construct with NewMigrator.
type Migrator struct {
	current uint32
	edges   map[uint32][]MigrationStep
}

// NewMigrator constructs a Migrator whose current schema version is
// currentVersion.
func NewMigrator(currentVersion uint32) *Migrator {
	return &Migrator{current: currentVersion, edges: make(map[uint32][]MigrationStep)}
}

// CurrentSchemaVersion returns the component's declared current version.
func (m *Migrator) CurrentSchemaVersion() uint32 { return m.current }

// Register adds a (from, to) migration step to the graph.
func (m *Migrator) Register(step MigrationStep) {
	m.edges[step.From] = append(m.edges[step.From], step)
}

// Plan computes the shortest chain of registered steps from -> to via
// breadth-first search over the step graph, so a migration prefers the
// fewest intermediate transformations. Returns a KindMigration error if no
// path exists.
func (m *Migrator) Plan(from, to uint32) ([]MigrationStep, error) {
	if from == to {
		return nil, nil
	}
	type node struct {
		version uint32
		path    []MigrationStep
	}
	visited := map[uint32]bool{from: true}
	queue := []node{{version: from}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, step := range m.edges[n.version] {
			if visited[step.To] {
				continue
			}
			path := append(append([]MigrationStep{}, n.path...), step)
			if step.To == to {
				return path, nil
			}
			visited[step.To] = true
			queue = append(queue, node{version: step.To, path: path})
		}
	}
	return nil, coreerrors.Migration("up", fmt.Sprintf("no migration path from version %d to %d", from, to), nil)
}

// Apply runs the planned chain against value. Each step is validated before
// proceeding to the next; a failure at any step aborts the chain and returns
// the original value untouched, per the "failures abort the chain and leave
// source data untouched" contract.
func (m *Migrator) Apply(ctx context.Context, from, to uint32, value any) (any, error) {
	steps, err := m.Plan(from, to)
	if err != nil {
		return value, err
	}
	current := value
	for _, step := range steps {
		select {
		case <-ctx.Done():
			return value, ctx.Err()
		default:
		}
		migrated, err := step.Migrate(current)
		if err != nil {
			return value, coreerrors.Migration("up", fmt.Sprintf("migrate %d -> %d", step.From, step.To), err)
		}
		if step.Validate != nil {
			if err := step.Validate(migrated); err != nil {
				return value, coreerrors.Migration("up", fmt.Sprintf("validate version %d", step.To), err)
			}
		}
		current = migrated
	}
	return current, nil
}

// MigrateEntry migrates a single stored Entry to targetVersion and writes
// the result back through s, a convenience helper for callers upgrading
// entries lazily on read.
func (m *Migrator) MigrateEntry(ctx context.Context, s Base, scope Scope, key string, entry Entry, targetVersion uint32) (Entry, error) {
	if entry.SchemaVersion == targetVersion {
		return entry, nil
	}
	migrated, err := m.Apply(ctx, entry.SchemaVersion, targetVersion, entry.Value)
	if err != nil {
		return entry, err
	}
	newEntry := Entry{Value: migrated, SchemaVersion: targetVersion}
	if err := s.Set(ctx, scope, key, migrated); err != nil {
		return entry, err
	}
	return newEntry, nil
}
