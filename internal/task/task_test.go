package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/synthlab/launcher/internal/errs"
)

func pollUntilDone(t *testing.T, poll func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !poll() {
		if time.Now().After(deadline) {
			t.Fatal("task did not reach terminal state")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	started := time.Now()
	tk := Start(context.Background(), func(ctx context.Context) (Unit, error) {
		<-release
		return Unit{}, nil
	})
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Fatalf("Start blocked for %v", elapsed)
	}
	if tk.Poll() {
		t.Error("Poll() = true before the worker finished")
	}
	close(release)
	pollUntilDone(t, tk.Poll)
	if _, err := tk.Await(); err != nil {
		t.Errorf("Await() error = %v, want nil", err)
	}
}

func TestPollIsSticky(t *testing.T) {
	tk := Start(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	pollUntilDone(t, tk.Poll)

	for i := 0; i < 100; i++ {
		if !tk.Poll() {
			t.Fatalf("Poll() = false on call %d after terminal state", i)
		}
	}

	v, err := tk.Await()
	if err != nil || v != 42 {
		t.Errorf("Await() = (%d, %v), want (42, nil)", v, err)
	}
}

func TestCancelBeforeCompletion(t *testing.T) {
	tk := Start(context.Background(), func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	tk.Cancel()
	pollUntilDone(t, tk.Poll)

	v, err := tk.Await()
	if v != "" {
		t.Errorf("Await() value = %q after cancel, want zero value", v)
	}
	if !errs.IsCancelled(err) {
		t.Errorf("Await() error kind = %v, want cancelled", errs.KindOf(err))
	}
}

func TestCancelAfterTerminalIsNoOp(t *testing.T) {
	tk := Start(context.Background(), func(ctx context.Context) (int, error) {
		return 7, nil
	})
	pollUntilDone(t, tk.Poll)

	tk.Cancel() // already Ready; must not turn success into cancellation

	v, err := tk.Await()
	if err != nil || v != 7 {
		t.Errorf("Await() = (%d, %v) after late Cancel, want (7, nil)", v, err)
	}
}

func TestWorkerErrorDuringCancellationReportsCancelled(t *testing.T) {
	// A worker that trips on an unrelated error while unwinding from
	// cancellation must still resolve as cancelled.
	tk := Start(context.Background(), func(ctx context.Context) (Unit, error) {
		<-ctx.Done()
		return Unit{}, errors.New("connection reset mid-chunk")
	})
	tk.Cancel()
	pollUntilDone(t, tk.Poll)

	if _, err := tk.Await(); !errs.IsCancelled(err) {
		t.Errorf("Await() error = %v, want cancelled kind", err)
	}
}

func TestAwaitTwicePanics(t *testing.T) {
	tk := Start(context.Background(), func(ctx context.Context) (Unit, error) {
		return Unit{}, nil
	})
	pollUntilDone(t, tk.Poll)
	if _, err := tk.Await(); err != nil {
		t.Fatalf("first Await() error = %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("second Await() did not panic")
		}
	}()
	_, _ = tk.Await()
}

func TestFailureSurfacesError(t *testing.T) {
	want := errs.Newf(errs.KindNetwork, "fetch", "HTTP 503")
	tk := Start(context.Background(), func(ctx context.Context) (Unit, error) {
		return Unit{}, want
	})
	pollUntilDone(t, tk.Poll)

	_, err := tk.Await()
	if errs.KindOf(err) != errs.KindNetwork {
		t.Errorf("Await() error kind = %v, want network", errs.KindOf(err))
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	a := Start(context.Background(), func(ctx context.Context) (Unit, error) { return Unit{}, nil })
	b := Start(context.Background(), func(ctx context.Context) (Unit, error) { return Unit{}, nil })
	if a.ID() == b.ID() {
		t.Error("two handles share an ID")
	}
	pollUntilDone(t, a.Poll)
	pollUntilDone(t, b.Poll)
	_, _ = a.Await()
	_, _ = b.Await()
}

func TestGroupIndependentFailure(t *testing.T) {
	var g Group[Unit]

	g.Add(Start(context.Background(), func(ctx context.Context) (Unit, error) {
		return Unit{}, nil
	}))
	g.Add(Start(context.Background(), func(ctx context.Context) (Unit, error) {
		return Unit{}, errs.Newf(errs.KindIO, "library", "sha1 mismatch")
	}))
	g.Add(Start(context.Background(), func(ctx context.Context) (Unit, error) {
		time.Sleep(10 * time.Millisecond)
		return Unit{}, nil
	}))

	pollUntilDone(t, g.PollAll)

	err := g.AwaitAll()
	if errs.KindOf(err) != errs.KindIO {
		t.Errorf("AwaitAll() error kind = %v, want io", errs.KindOf(err))
	}
}

func TestGroupPrefersFailureOverCancellation(t *testing.T) {
	var g Group[Unit]

	cancelled := Start(context.Background(), func(ctx context.Context) (Unit, error) {
		<-ctx.Done()
		return Unit{}, ctx.Err()
	})
	cancelled.Cancel()
	g.Add(cancelled)
	g.Add(Start(context.Background(), func(ctx context.Context) (Unit, error) {
		return Unit{}, errs.Newf(errs.KindNetwork, "jar", "HTTP 500")
	}))

	pollUntilDone(t, g.PollAll)

	if err := g.AwaitAll(); errs.KindOf(err) != errs.KindNetwork {
		t.Errorf("AwaitAll() error kind = %v, want network", errs.KindOf(err))
	}
}
