// Package pooler provides a fixed-size worker pool with a synchronous
// fan-out/fan-in dispatch: one call hands every worker the same
// callback, each worker runs it exactly once, and the caller blocks
// until all of them have finished. There is no task queue and no
// futures; the primitive is meant for uniform data-parallel work such
// as per-worker chunks of a larger computation.
//
// Typical usage:
//
//	pool := pooler.New[*Samples](4)
//
//	pool.RunWith(samples, func(worker int, s *Samples) {
//	    processChunk(worker, pool.Workers(), s)
//	})
//
//	pool.Stop()
//
// # Dispatch semantics
//
// Run and RunWith block until every worker identity 0..Workers()-1 has
// invoked the callback once with the shared data value. Dispatches are
// strictly serialized: a new one cannot begin until the previous one
// has fully finished, and Stop cannot interrupt a dispatch in flight.
// Concurrent callers of Run/RunWith/Stop are safe and serialize
// against each other.
//
// # Failure policy
//
// A panic inside the callback is recovered on that worker and reported
// in the error returned by Run/RunWith, one entry per panicking worker
// identity; the pool stays usable. A callback that never returns
// blocks the dispatch forever — the pool has no timeout or
// cancellation.
//
// # Observability
//
// Attach a Metrics value via Options to export dispatch counts,
// dispatch duration, busy workers and recovered panics through
// Prometheus, and Hooks to observe dispatch and worker events inline.
package pooler
