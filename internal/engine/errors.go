package engine

import "errors"

// Sentinel error kinds, wrapped with context by callers.
var (
	// ErrPrecondition marks a rejected action precondition.
	ErrPrecondition = errors.New("engine: precondition not met")
	// ErrUpstream marks a failure from an external dependency (LLM
	// provider, persistence backend).
	ErrUpstream = errors.New("engine: upstream failure")
	// ErrTransientStore marks a recoverable store contention error.
	ErrTransientStore = errors.New("engine: transient store error")
	// ErrInvariant marks a violated internal invariant — a bug, not a
	// runtime condition.
	ErrInvariant = errors.New("engine: invariant violated")
	// ErrConfiguration marks an invalid or missing configuration value.
	ErrConfiguration = errors.New("engine: invalid configuration")
)
