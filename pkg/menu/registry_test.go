package menu

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndList_PreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(Action{ID: ActionToggleRecording, Keybind: "R", Label: func() string { return "Start Recording" }})
	r.Register(Action{ID: ActionTakeScreenshot, Keybind: "S", Label: func() string { return "Take Screenshot" }})
	r.Register(Action{ID: ActionOpenDashboard, Label: func() string { return "Open Dashboard" }})

	entries := r.List()
	require.Len(t, entries, 3)
	assert.Equal(t, ActionToggleRecording, entries[0].ID)
	assert.Equal(t, "Start Recording", entries[0].Label)
	assert.Equal(t, ActionTakeScreenshot, entries[1].ID)
	assert.Equal(t, ActionOpenDashboard, entries[2].ID)
}

func TestRegistry_ReRegister_KeepsPositionUpdatesHandler(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register(Action{ID: ActionToggleCapture, Run: func(context.Context) error { calls++; return nil }})
	r.Register(Action{ID: ActionOpenDashboard, Run: func(context.Context) error { return nil }})

	newCalls := 0
	r.Register(Action{ID: ActionToggleCapture, Run: func(context.Context) error { newCalls++; return nil }})

	entries := r.List()
	require.Len(t, entries, 2)
	assert.Equal(t, ActionToggleCapture, entries[0].ID)

	require.NoError(t, r.Invoke(context.Background(), ActionToggleCapture))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, newCalls)
}

func TestRegistry_Invoke_UnknownActionErrors(t *testing.T) {
	r := NewRegistry()
	err := r.Invoke(context.Background(), ActionID("nope"))
	assert.Error(t, err)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	r.Register(Action{ID: ActionTakeScreenshot, Run: func(context.Context) error { return nil }})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.List()
			_ = r.Invoke(context.Background(), ActionTakeScreenshot)
		}()
	}
	wg.Wait()
}
