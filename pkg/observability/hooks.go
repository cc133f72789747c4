// Package observability provides hooks for metrics, tracing, and progress
// reporting.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about layout phases, cache operations and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the algorithm packages
// stay free of any observability framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPhaseHooks(&myPhaseHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Long-running work goes through a [Monitor], which reports phases to the
// registered hooks and answers cancellation polls:
//
//	m := observability.NewMonitor(ctx)
//	done := m.Phase("layering", g.NodeCount())
//	err := layerer.Layer(g)
//	done(err)
//	if m.IsCanceled() {
//	    return m.Err()
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Phase Hooks
// =============================================================================

// PhaseHooks receives events from the layout pipeline, once per phase
// (cycle breaking, layering, ordering, placement, ...).
type PhaseHooks interface {
	OnPhaseStart(ctx context.Context, phase string, nodeCount int)
	OnPhaseComplete(ctx context.Context, phase string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPhaseHooks is a no-op implementation of PhaseHooks.
type NoopPhaseHooks struct{}

func (NoopPhaseHooks) OnPhaseStart(context.Context, string, int)                     {}
func (NoopPhaseHooks) OnPhaseComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// registry holds the registered implementation of one hook interface.
type registry[T any] struct {
	mu   sync.RWMutex
	cur  T
	noop T
}

func (r *registry[T]) get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

// set registers h; a nil h restores the no-op implementation.
func (r *registry[T]) set(h T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if any(h) == nil {
		r.cur = r.noop
		return
	}
	r.cur = h
}

var (
	phaseHooks = &registry[PhaseHooks]{cur: NoopPhaseHooks{}, noop: NoopPhaseHooks{}}
	cacheHooks = &registry[CacheHooks]{cur: NoopCacheHooks{}, noop: NoopCacheHooks{}}
	httpHooks  = &registry[HTTPHooks]{cur: NoopHTTPHooks{}, noop: NoopHTTPHooks{}}
)

// SetPhaseHooks registers the hooks every layout run reports to. Runs
// already in progress keep the hooks they started with. nil restores the
// no-op hooks.
func SetPhaseHooks(h PhaseHooks) { phaseHooks.set(h) }

// SetCacheHooks registers the cache hooks. nil restores the no-op hooks.
func SetCacheHooks(h CacheHooks) { cacheHooks.set(h) }

// SetHTTPHooks registers the HTTP API hooks. nil restores the no-op hooks.
func SetHTTPHooks(h HTTPHooks) { httpHooks.set(h) }

// Phases returns the registered phase hooks.
func Phases() PhaseHooks { return phaseHooks.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.get() }

// Reset restores all hooks to their no-op defaults.
func Reset() {
	SetPhaseHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)
}
