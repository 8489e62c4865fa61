// Package task provides the pollable, cancellable unit of background work
// that every long-running launcher operation is built on.
//
// # Task
//
// A Task is started once, polled from a host loop, and awaited exactly once:
//
//	t := task.Start(ctx, func(ctx context.Context) (string, error) {
//	    return fetchSomething(ctx)
//	})
//
//	for !t.Poll() {
//	    time.Sleep(50 * time.Millisecond) // keep the UI responsive
//	}
//	value, err := t.Await()
//
// Poll never blocks and is sticky: once it reports true it reports true
// forever. Await consumes the handle; a second Await panics. Cancel requests
// cooperative termination through the task's context — the worker observes
// it at its own granularity, so the handle must still be polled to terminal
// and awaited to observe the cancelled result.
//
// # Counter
//
// Counter is the (total, finished) progress pair shared between a pipeline
// worker and the polling host. Both fields are atomics; total == 0 means
// "not yet known" and must not be rendered as 0%.
//
//	tk, counter := download.Assets(state)
//	for !tk.Poll() {
//	    if pct, ok := counter.Percent(); ok {
//	        render(pct)
//	    }
//	    time.Sleep(200 * time.Millisecond)
//	}
package task
