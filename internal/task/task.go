package task

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/synthlab/launcher/internal/errs"
)

// Unit is the result type for tasks that produce no value.
type Unit = struct{}

// Task is a handle to one unit of background work.
//
// A Task is created by Start, belongs to the caller that created it, and
// must be consumed by exactly one Await (or dropped). Handles are never
// shared between tasks; the zero value is not usable.
type Task[T any] struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}

	// Written by the worker goroutine before close(done), read by the
	// owner after <-done.
	value T
	err   error

	consumed atomic.Bool
}

// Start begins fn on its own goroutine and returns immediately.
//
// fn receives a context derived from parent that is cancelled by Cancel.
// fn should check the context between units of work (files, chunks,
// protocol round-trips); cancellation is cooperative, never preemptive.
//
// If fn fails because the context was cancelled, Await reports a
// KindCancelled error regardless of how fn wrapped the cause.
func Start[T any](parent context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &Task[T]{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		value, err := fn(ctx)
		if err != nil && ctx.Err() != nil {
			// Cancellation wins over whatever the worker tripped on
			// while unwinding.
			err = errs.Cancelled("task " + t.id.String())
		}
		t.value, t.err = value, err
	}()

	return t
}

// ID returns the handle's unique identity, stable for its whole lifetime.
func (t *Task[T]) ID() uuid.UUID {
	return t.id
}

// Poll reports whether the task has reached a terminal state — success,
// failure, or cancellation. It never blocks, is safe to call repeatedly
// and rapidly, and is sticky: after the first true it always returns true.
func (t *Task[T]) Poll() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Await blocks until the task is terminal and returns its result,
// consuming the handle.
//
// Await panics if called a second time on the same handle. Hosts are
// expected to call Await only after Poll has returned true, so in practice
// it does not block.
func (t *Task[T]) Await() (T, error) {
	if !t.consumed.CompareAndSwap(false, true) {
		panic("task: Await called twice on the same handle")
	}
	<-t.done
	t.cancel() // release the context; no-op if already cancelled
	return t.value, t.err
}

// Cancel requests cooperative termination.
//
// It has effect only while the task is still running; once terminal it is
// a no-op. The handle must still be polled to terminal and awaited to
// observe the cancelled result.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Group tracks a set of outstanding handles of one result type so a host
// can poll them as a unit. It is a convenience for hosts that drive
// several independent pipelines; the tasks themselves stay independent.
type Group[T any] struct {
	mu    sync.Mutex
	tasks []*Task[T]
}

// Add registers a handle with the group.
func (g *Group[T]) Add(t *Task[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, t)
}

// PollAll reports whether every registered handle is terminal.
// An empty group is trivially done.
func (g *Group[T]) PollAll() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tasks {
		if !t.Poll() {
			return false
		}
	}
	return true
}

// CancelAll requests cancellation of every registered handle.
func (g *Group[T]) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tasks {
		t.Cancel()
	}
}

// AwaitAll consumes every handle and returns the first non-cancellation
// error, or the first cancellation if nothing failed outright. Every task
// is awaited even when an earlier one failed, so no pipeline is left
// unobserved.
func (g *Group[T]) AwaitAll() error {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()

	var firstErr, firstCancel error
	for _, t := range tasks {
		if _, err := t.Await(); err != nil {
			if errs.IsCancelled(err) {
				if firstCancel == nil {
					firstCancel = err
				}
			} else if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return firstCancel
}
