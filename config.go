package goffi

import (
	"strings"
	"sync/atomic"
)

// EnableMode is spec.md §6's `enable = off|on|preload` configuration
// option. It is process-wide and meant to be set once before any VM is
// created, in the style of the teacher's own `internal/flag2`
// process-global feature flags.
type EnableMode uint8

const (
	// EnableOn allows every engine operation: the default.
	EnableOn EnableMode = iota
	// EnableOff disables the engine entirely; every entrypoint returns
	// DisabledError.
	EnableOff
	// EnablePreload restricts the engine to code parsed at preload time
	// (internal/preload.Load, driven by the preload option below): Cdef/Load, the host-script-facing
	// dynamic declaration entrypoints, refuse with DisabledError, but
	// CData/call operations against already-preloaded scopes keep working.
	EnablePreload
)

// allowParse reports whether a host-script-initiated Cdef/Load call is
// permitted under m.
func (m EnableMode) allowParse() bool { return m == EnableOn }

// allowRuntime reports whether CData/call operations are permitted under
// m at all (both EnableOn and EnablePreload allow exercising whatever was
// already declared; only EnableOff refuses everything).
func (m EnableMode) allowRuntime() bool { return m != EnableOff }

// globalEnable is the process-wide switch every entrypoint consults.
// atomic.Int32 rather than a plain field so Configure can be called
// concurrently with in-flight VM operations without a data race; spec.md
// §5's single-threaded-per-VM model doesn't extend to this global.
var globalEnable atomicEnable

type atomicEnable struct{ v atomic.Int32 }

func (a *atomicEnable) allowParse() bool   { return EnableMode(a.v.Load()).allowParse() }
func (a *atomicEnable) allowRuntime() bool { return EnableMode(a.v.Load()).allowRuntime() }
func (a *atomicEnable) set(m EnableMode)   { a.v.Store(int32(m)) }
func (a *atomicEnable) get() EnableMode    { return EnableMode(a.v.Load()) }

// Configure applies process-wide options. It is meant to be called once,
// before any VM is created (spec.md §6: "process-wide, set before VM
// init").
func Configure(opts ...ConfigOption) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	globalEnable.set(c.enable)
}

type config struct {
	enable EnableMode
}

// ConfigOption configures process-wide engine behavior via Configure.
type ConfigOption func(*config)

// WithEnable sets the enable = off|on|preload option.
func WithEnable(m EnableMode) ConfigOption {
	return func(c *config) { c.enable = m }
}

// ParsePreloadList splits spec.md §6's `preload = "file1;file2;..."`
// colon/semicolon-separated string form into individual paths, trimming
// whitespace and dropping empty entries. Each entry may itself be a glob
// pattern, left for the caller (typically a host's MINIT hook) to expand against a filesystem via filepath.Glob before handing
// the resulting paths to internal/preload as a Manifest, or reading them
// directly as the single-scope, directive-driven files spec.md §4.3
// describes.
func ParsePreloadList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ':' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
