// Package api is the public entry point of the vize compiler: template
// compilation, whole-SFC compilation, analysis, and project-wide checks.
// The types here mirror the internal options records one to one so the
// internal packages can evolve without breaking callers.
package api

import (
	"github.com/ushironoko/vize/internal/logger"
	"github.com/ushironoko/vize/internal/tmplast"
)

type Mode uint8

const (
	// ModeModule emits an ES module
	ModeModule Mode = iota

	// ModeFunction emits a plain render function reading helpers off the
	// global runtime
	ModeFunction
)

// Options is the full compiler configuration. The zero value is a
// non-prefixing module-mode compile against the default runtime.
type Options struct {
	Mode Mode

	// Embed the render function into setup so it closes over setup locals.
	// Requires PrefixIdentifiers.
	Inline bool

	// Run the expression rewriter
	PrefixIdentifiers bool

	// Cache event handlers via the per-instance _cache array
	CacheHandlers bool

	// Run the static hoister
	HoistStatic bool

	// Opaque scoped-style id; emitted as an attribute on every native
	// element prop object
	ScopeID string

	// Import specifier for the runtime; empty means "vue"
	RuntimeModuleName string

	// Caller-supplied binding metadata. When present it supersedes
	// anything derived from the script block.
	BindingMetadata *tmplast.BindingMetadata

	// Strip TypeScript from expression content
	IsTS bool

	// Interpolation delimiters; zero value means {{ and }}
	Delimiters [2]string

	// Component name recorded as __name in the emitted module; defaults
	// to the file name
	ComponentName string
}

// Result is the outcome of one compilation. Messages carries every
// diagnostic; the caller decides which severities are fatal.
type Result struct {
	Code string

	// Binding metadata in effect during codegen (derived or supplied)
	Bindings *tmplast.BindingMetadata

	// Helper names referenced by the emitted code, in deterministic order
	Helpers []string

	Messages []logger.Msg
}

// HasErrors reports whether any message is an error.
func (r *Result) HasErrors() bool {
	for _, msg := range r.Messages {
		if msg.Kind == logger.Error {
			return true
		}
	}
	return false
}
