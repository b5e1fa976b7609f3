package widget

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Toolkit is the part of a windowing toolkit Lookout consumes.
type Toolkit interface {
	// Windows returns the ambient registry of windows (top-level and owned),
	// in creation order.
	Windows() []Widget
	// Kinds returns the binding's kind registry.
	Kinds() *Registry
	Dispatcher
	// Dispose releases the native resources of window w and hides it. It must be
	// called on the UI thread, i.e. with a context passed to a posted task.
	Dispose(ctx context.Context, w Widget) error
}

// Dispatcher queues work on the toolkit's single UI thread.
type Dispatcher interface {
	// Post queues fn for execution on the UI thread. The context handed to fn is
	// marked as a UI-thread context (see OnUIThread).
	Post(fn func(ctx context.Context)) error
}

// ReleaseNotifier is implemented by bindings that report when a widget handle is
// retired for good. Filter bookkeeping keyed by ID is pruned on these notifications.
type ReleaseNotifier interface {
	OnReleased(fn func(id ID)) (cancel func())
}

// ErrNotUIThread is returned by operations that must run on the UI thread.
var ErrNotUIThread = errors.New("not on the UI thread")

// ErrDispatchTimeout is returned by InvokeAndWait when the UI thread did not
// complete the task within the bounded wait.
var ErrDispatchTimeout = errors.New("timed out waiting for the UI thread")

// ExitRequest is the panic value a binding raises when the application under test
// asks the process to exit while running on the UI thread.
type ExitRequest struct {
	Code int
}

func (e ExitRequest) Error() string {
	return fmt.Sprintf("application requested exit (code %d)", e.Code)
}

// PanicError wraps a value recovered from a panic in a UI-thread task.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic on UI thread: %v", e.Value)
}

// Unwrap exposes panic values that are themselves errors (ExitRequest, runtime errors).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type uiThreadKey struct{}

// WithUIThread marks ctx as belonging to a task running on the UI thread.
// Bindings call it for every task they run.
func WithUIThread(ctx context.Context) context.Context {
	return context.WithValue(ctx, uiThreadKey{}, true)
}

// OnUIThread reports whether ctx was handed out by the UI thread.
func OnUIThread(ctx context.Context) bool {
	on, _ := ctx.Value(uiThreadKey{}).(bool)
	return on
}

// InvokeAndWait runs fn on the UI thread and waits for it to finish.
//
// When ctx already belongs to the UI thread fn runs inline, since posting to
// ourselves would deadlock. Otherwise the task is posted and the caller blocks
// until it completes, ctx is cancelled or timeout elapses (timeout <= 0 waits
// without bound). A panic inside fn is recovered and returned as *PanicError.
func InvokeAndWait(ctx context.Context, d Dispatcher, timeout time.Duration, fn func(ctx context.Context) error) error {
	if OnUIThread(ctx) {
		return runGuarded(ctx, fn)
	}

	done := make(chan error, 1)
	if err := d.Post(func(uiCtx context.Context) {
		done <- runGuarded(uiCtx, fn)
	}); err != nil {
		return fmt.Errorf("failed to post to UI thread: %w", err)
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return ErrDispatchTimeout
	}
}

func runGuarded(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn(ctx)
}
