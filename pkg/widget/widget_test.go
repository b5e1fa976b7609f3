package widget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// Kind registry
// ========================================

func TestRegistryIsA(t *testing.T) {
	r := DefaultRegistry()

	assert.True(t, r.IsA(KindButton, KindButton))
	assert.True(t, r.IsA(KindButton, KindAbstractButton))
	assert.True(t, r.IsA(KindCheckBox, KindAbstractButton))
	assert.True(t, r.IsA(KindMenu, KindMenuItem))
	assert.True(t, r.IsA(KindConsole, KindWindow))
	assert.True(t, r.IsA(KindDialog, KindComponent))

	assert.False(t, r.IsA(KindAbstractButton, KindButton))
	assert.False(t, r.IsA(KindLabel, KindContainer))
	assert.False(t, r.IsA("Unknown", KindComponent))
}

func TestRegistryMultipleSupers(t *testing.T) {
	r := DefaultRegistry()
	r.Register("ComboField", KindTextField, KindList)

	assert.True(t, r.IsA("ComboField", KindTextComponent))
	assert.True(t, r.IsA("ComboField", KindList))
	assert.True(t, r.Known("ComboField"))
	assert.False(t, r.Known("Other"))
}

func TestRegistrySame(t *testing.T) {
	r := DefaultRegistry()
	assert.True(t, r.Same(KindButton, KindButton))
	assert.False(t, r.Same(KindButton, KindAbstractButton))

	// Mutual registration makes two kinds aliases of each other.
	r.Register("JButton", KindButton)
	r.Register(KindButton, "JButton")
	assert.True(t, r.Same("JButton", KindButton))
}

func TestDefaultNames(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"", true},
		{"frame0", true},
		{"panel3", true},
		{"Button12", true},
		{"###overrideRedirect###", true},
		{"ok", false},
		{"frame", false},
		{"mainFrame0x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDefaultName(tt.name), "IsDefaultName(%q)", tt.name)
	}
}

// ========================================
// Rect
// ========================================

func TestParseRect(t *testing.T) {
	r, err := ParseRect("[10,20][110,70]")
	require.NoError(t, err)
	assert.Equal(t, Rect{X1: 10, Y1: 20, X2: 110, Y2: 70}, r)

	x, y := r.Center()
	assert.Equal(t, 60, x)
	assert.Equal(t, 45, y)
	assert.Equal(t, 5000, r.Area())
	assert.True(t, r.Contains(10, 20))
	assert.False(t, r.Contains(111, 20))
	assert.Equal(t, "[10,20][110,70]", r.String())

	_, err = ParseRect("10,20,110,70")
	assert.Error(t, err)
}

// ========================================
// UI thread dispatch
// ========================================

type loopDispatcher struct {
	tasks chan func(ctx context.Context)
}

func newLoopDispatcher(t *testing.T) *loopDispatcher {
	d := &loopDispatcher{tasks: make(chan func(ctx context.Context), 8)}
	stop := make(chan struct{})
	go func() {
		ctx := WithUIThread(context.Background())
		for {
			select {
			case fn := <-d.tasks:
				fn(ctx)
			case <-stop:
				return
			}
		}
	}()
	t.Cleanup(func() { close(stop) })
	return d
}

func (d *loopDispatcher) Post(fn func(ctx context.Context)) error {
	d.tasks <- fn
	return nil
}

type stuckDispatcher struct{}

func (stuckDispatcher) Post(func(ctx context.Context)) error { return nil }

func TestInvokeAndWaitRunsOnUIThread(t *testing.T) {
	d := newLoopDispatcher(t)

	var onUI bool
	err := InvokeAndWait(context.Background(), d, time.Second, func(ctx context.Context) error {
		onUI = OnUIThread(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, onUI)
}

func TestInvokeAndWaitInlineOnUIThread(t *testing.T) {
	// Posting would never run; inline execution must not need the dispatcher.
	ctx := WithUIThread(context.Background())
	ran := false
	err := InvokeAndWait(ctx, stuckDispatcher{}, time.Second, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestInvokeAndWaitTimeout(t *testing.T) {
	err := InvokeAndWait(context.Background(), stuckDispatcher{}, 20*time.Millisecond, func(context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrDispatchTimeout)
}

func TestInvokeAndWaitRecoversPanic(t *testing.T) {
	d := newLoopDispatcher(t)

	err := InvokeAndWait(context.Background(), d, time.Second, func(context.Context) error {
		panic(ExitRequest{Code: 3})
	})
	var pe *PanicError
	require.True(t, errors.As(err, &pe))

	var exit ExitRequest
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 3, exit.Code)
}

func TestInvokeAndWaitReturnsError(t *testing.T) {
	d := newLoopDispatcher(t)
	boom := errors.New("boom")

	err := InvokeAndWait(context.Background(), d, time.Second, func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
