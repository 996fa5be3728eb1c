package hooks

// Features is the global set of enabled feature flags gating hook
// materialization. It is not safe for concurrent mutation; callers
// configure it during startup and treat it as read-only afterward, or
// guard external mutation with their own lock.
type Features struct {
	enabled map[string]bool
	edges   map[string][]string // feature -> features it depends on
}

// NewFeatures constructs an empty feature set.
func NewFeatures() *Features {
	return &Features{enabled: make(map[string]bool), edges: make(map[string][]string)}
}

// Enable turns a feature flag on.
func (f *Features) Enable(name string) { f.enabled[name] = true }

// Disable turns a feature flag off.
func (f *Features) Disable(name string) { f.enabled[name] = false }

// DependsOn records that feature requires dependency to also be enabled.
// Dependency edges are transitive: Satisfied walks the full chain.
func (f *Features) DependsOn(feature, dependency string) {
	f.edges[feature] = append(f.edges[feature], dependency)
}

// Enabled reports whether a single flag is set, ignoring dependencies.
func (f *Features) Enabled(name string) bool { return f.enabled[name] }

// Satisfied reports whether every feature in required is enabled, and every
// feature it transitively depends on is also enabled.
func (f *Features) Satisfied(required []string) bool {
	for _, name := range required {
		if !f.satisfiedOne(name, make(map[string]bool)) {
			return false
		}
	}
	return true
}

func (f *Features) satisfiedOne(name string, visiting map[string]bool) bool {
	if !f.enabled[name] {
		return false
	}
	if visiting[name] {
		return true // already on the current chain, dependency cycle tolerated
	}
	visiting[name] = true
	for _, dep := range f.edges[name] {
		if !f.satisfiedOne(dep, visiting) {
			return false
		}
	}
	return true
}
