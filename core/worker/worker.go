// Package worker provides the goroutine lifecycle embedding pattern used
// throughout this core: a component embeds Worker, calls Go to launch its
// background loop(s), and that loop selects on HaltCh() to notice shutdown.
// Grounded on the embedding pattern the teacher's connection/ARQ types use
// via katzenpost's core/worker package (see client2/connection.go's
// `worker.Worker` field and `c.HaltCh()`/`c.Go(...)` calls) — reimplemented
// here rather than imported, since pulling in that module would drag along
// the mix-network crypto stack this core has no use for.
package worker

import "sync"

// Worker is embedded by components that run one or more background
// goroutines and need a clean, race-free shutdown signal.
type Worker struct {
	initOnce sync.Once
	haltOnce sync.Once
	haltCh   chan struct{}
	wg       sync.WaitGroup
}

// HaltCh returns the channel that closes when Halt is called. Background
// loops select on it to know when to return.
func (w *Worker) HaltCh() <-chan struct{} {
	w.ensureInit()
	return w.haltCh
}

func (w *Worker) ensureInit() {
	w.initOnce.Do(func() { w.haltCh = make(chan struct{}) })
}

// Go launches fn in a new goroutine tracked by Wait.
func (w *Worker) Go(fn func()) {
	w.ensureInit()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

// Halt signals every goroutine launched via Go to stop, by closing HaltCh.
// Safe to call more than once.
func (w *Worker) Halt() {
	w.ensureInit()
	w.haltOnce.Do(func() { close(w.haltCh) })
}

// Wait blocks until every goroutine launched via Go has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}
