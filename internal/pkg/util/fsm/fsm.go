// Package fsm carries small helpers around looplab/fsm.
package fsm

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback to the fsm.Callback shape.
// The error surfaces through event.Err and, from transition callbacks,
// through the Event() return value.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Arg extracts the i-th event argument as T.
func Arg[T any](event *fsm.Event, i int) (T, error) {
	var zero T
	if i >= len(event.Args) {
		return zero, fmt.Errorf("event %q carries %d args, want index %d", event.Event, len(event.Args), i)
	}
	v, ok := event.Args[i].(T)
	if !ok {
		return zero, fmt.Errorf("event %q arg %d is %T, want %T", event.Event, i, event.Args[i], zero)
	}
	return v, nil
}
