// Package config is the plain struct tree an embedder fills in (by hand, or
// by unmarshaling from whatever format it prefers) and passes to the C1-C5
// constructors at startup. There is no env-var or CLI surface here by
// design: the runtime's non-goals exclude a configuration-loading layer, but
// every recognized option named in spec.md's External Interfaces section
// still needs a documented home with a correct zero-value default, the way
// the teacher's per-component Options structs (features/policy/basic.Options,
// runtime/agent/engine/temporal.Options) document their own defaults instead
// of delegating to a flag parser.
package config

import "time"

// Config aggregates every subsystem's recognized options. Embedders
// typically construct one Config, apply overrides for the settings they
// care about, and pass the relevant sub-struct to each subsystem
// constructor; Config itself is never imported by core/hooks, core/lifecycle,
// core/replay, or core/state, keeping those packages free of a dependency on
// a configuration format.
type Config struct {
	Lifecycle Lifecycle
	Hooks     Hooks
	Events    Events
	Replay    Replay
	State     State
}

// Lifecycle covers C4's per-subsystem timeouts and propagation flags.
type Lifecycle struct {
	// InitTimeout bounds a composite's InitializeComposite call. Zero means
	// the caller must supply its own context deadline.
	InitTimeout time.Duration
	// ShutdownTimeout bounds one agent's shutdown, all of its hooks together;
	// breaching it forces the target to Terminated. Zero defaults to 30s,
	// matching lifecycle.Coordinator.ShutdownAgent's own fallback.
	ShutdownTimeout time.Duration
	// CascadeEvents propagates a composite's state transitions to every
	// child when true.
	CascadeEvents bool
	// WaitForAll requires every child lifecycle hook to complete before a
	// composite transition is considered complete; false returns as soon as
	// the first failure is observed.
	WaitForAll bool
	// HealthCheckInterval is how often a health monitor polls component
	// health. Zero disables periodic polling (health checks still run
	// on-demand).
	HealthCheckInterval time.Duration
}

// Hooks covers C2's registry sizing and feature-gating defaults.
type Hooks struct {
	// MaxInstantiatedHooks bounds live hook instances across all points.
	// Zero means unbounded.
	MaxInstantiatedHooks int
	// UseLRUEviction enables LRU-by-last-access eviction once
	// MaxInstantiatedHooks is reached; false rejects new instantiation
	// instead of evicting.
	UseLRUEviction bool
	// PreloadPoints names hook points to materialize every registered
	// factory for at startup, rather than lazily on first dispatch.
	PreloadPoints []string
	// DefaultFeatures seeds the feature set gating which hooks are eligible
	// to run, before any runtime feature toggle.
	DefaultFeatures []string
	// CollectStats enables access-count/last-access bookkeeping on every
	// hook entry; disabling it saves the bookkeeping cost for registries
	// that never inspect it.
	CollectStats bool
}

// Events covers the correlation/trace store's caps and detail level.
type Events struct {
	// MaxEventsPerTrace bounds events recorded per open trace. Zero means
	// unbounded.
	MaxEventsPerTrace int
	// MaxActiveTraces bounds concurrently open traces, evicting the least
	// recently active once reached. Zero means unbounded.
	MaxActiveTraces int
	// TraceRetention is how long a completed/failed/abandoned trace is kept
	// before it becomes eligible for cleanup. Zero means kept indefinitely.
	TraceRetention time.Duration
	// EnableDetailedTiming records per-hook ElapsedFromStart timing in every
	// TraceEvent; disabling it skips the extra timestamp bookkeeping.
	EnableDetailedTiming bool
}

// ReplayMode names the default scheduling mode new replay requests use when
// the caller doesn't specify one explicitly.
type ReplayMode string

const (
	ReplayModeImmediate ReplayMode = "immediate"
	ReplayModeAt        ReplayMode = "at"
	ReplayModeEvery     ReplayMode = "every"
	ReplayModeCron      ReplayMode = "cron"
)

// Replay covers C5's scheduling and concurrency defaults.
type Replay struct {
	// DefaultMode is the schedule kind assumed when a replay request omits
	// one. Empty defaults to ReplayModeImmediate.
	DefaultMode ReplayMode
	// DefaultTimeout bounds a single replayed hook's re-execution during a
	// session's Play loop. Zero means unbounded.
	DefaultTimeout time.Duration
	// EnableBreakpoints gates whether a session honors registered
	// breakpoints at all; false runs straight through to completion,
	// ignoring any Breakpoint added via the controller.
	EnableBreakpoints bool
	// DefaultSpeedMultiplier seeds a session's playback speed. Zero defaults
	// to replay.DefaultSpeed (1.0x).
	DefaultSpeedMultiplier float64
	// MaxConcurrentReplays bounds live replay sessions a Controller will
	// schedule at once. Zero means unbounded.
	MaxConcurrentReplays int
}

// State covers C1's backup/compression defaults.
type State struct {
	// BackupDir is the filesystem root backup manifests and payloads are
	// written under, for backends that persist backups to disk.
	BackupDir string
	// CompressionEnabled compresses backup payloads at rest.
	CompressionEnabled bool
	// MaxBackups and MaxBackupAge seed the default state.RetentionPolicy
	// applied by Backupper.Prune. Zero in either field means that axis is
	// unbounded.
	MaxBackups   int
	MaxBackupAge time.Duration
	// IncrementalEnabled allows create_backup(incremental=true) requests;
	// false forces every backup to a full snapshot regardless of what the
	// caller requests.
	IncrementalEnabled bool
}

// Default returns a Config with the documented zero-value defaults spelled
// out explicitly, for embedders that want a sane starting point to override
// rather than building up from Go's zero values by hand.
func Default() Config {
	return Config{
		Lifecycle: Lifecycle{
			InitTimeout:         30 * time.Second,
			ShutdownTimeout:     30 * time.Second,
			CascadeEvents:       true,
			WaitForAll:          true,
			HealthCheckInterval: 0,
		},
		Hooks: Hooks{
			MaxInstantiatedHooks: 0,
			UseLRUEviction:       true,
			CollectStats:         true,
		},
		Events: Events{
			MaxEventsPerTrace: 0,
			MaxActiveTraces:   0,
			TraceRetention:    0,
		},
		Replay: Replay{
			DefaultMode:            ReplayModeImmediate,
			EnableBreakpoints:      true,
			DefaultSpeedMultiplier: 1.0,
			MaxConcurrentReplays:   0,
		},
		State: State{
			CompressionEnabled: false,
			IncrementalEnabled: true,
		},
	}
}
