package errs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified network", New(KindNetwork, "fetch manifest", io.ErrUnexpectedEOF), KindNetwork},
		{"classified auth", Newf(KindAuth, "refresh", "token expired"), KindAuth},
		{"wrapped classified", fmt.Errorf("outer: %w", New(KindIO, "write jar", io.ErrShortWrite)), KindIO},
		{"bare context.Canceled", context.Canceled, KindCancelled},
		{"wrapped context.Canceled", fmt.Errorf("task: %w", context.Canceled), KindCancelled},
		{"cancelled helper", Cancelled("download assets"), KindCancelled},
		{"unclassified", errors.New("plain"), KindUnknown},
		{"nil-ish unknown", fmt.Errorf("no kind"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewForcesCancelledKind(t *testing.T) {
	// A network error produced by a cancelled request must classify as
	// cancellation, not as a network failure.
	err := New(KindNetwork, "download", fmt.Errorf("get: %w", context.Canceled))
	if !IsCancelled(err) {
		t.Errorf("IsCancelled() = false for context.Canceled cause, want true")
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(KindParse, "decode asset index", errors.New("unexpected end of JSON input"))
	want := "decode asset index: parse: unexpected end of JSON input"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := New(KindIO, "store library", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}
