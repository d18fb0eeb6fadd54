package pooler

// Hooks let you observe pool lifecycle events. All hooks are optional
// and must be fast; they run inline on the dispatcher or worker.
type Hooks struct {
	// OnDispatch runs at the start of every Run/RunWith call.
	OnDispatch func()
	// OnWorkerDone runs on the worker after its callback returns.
	OnWorkerDone func(worker int)
	// OnPanic runs on the worker when its callback panics.
	OnPanic func(worker int, err error)
}

// Options configure the pool.
type Options struct {
	Workers int
	Hooks   Hooks
	Metrics *Metrics
}
