// Package menu implements the desktop agent's command-palette action
// registry: a small, process-wide set of user-invocable actions ("Start
// recording", "Take screenshot now", "Pause auto-capture", "Open
// dashboard") that the tray icon and the floating palette UI both
// dispatch through.
package menu

import (
	"context"
	"fmt"
	"sync"
)

// ActionID identifies one registered palette action.
type ActionID string

const (
	ActionToggleRecording ActionID = "toggle_recording"
	ActionTakeScreenshot  ActionID = "take_screenshot"
	ActionToggleCapture   ActionID = "toggle_capture"
	ActionOpenDashboard   ActionID = "open_dashboard"
)

// Handler performs the action's effect. It is invoked with the registry's
// mutex released, so handlers may themselves call back into the registry
// (e.g. to update a label via Relabel).
type Handler func(ctx context.Context) error

// LabelFunc computes an action's current display label; several palette
// entries toggle between two labels depending on live agent state ("Start
// Recording" / "Stop Recording").
type LabelFunc func() string

// Action is one entry in the palette.
type Action struct {
	ID      ActionID
	Keybind string
	Label   LabelFunc
	Run     Handler
}

// Registry is the single process-wide, mutex-guarded action table. Entries
// are added at startup and never removed, matching the append-only,
// single-mutex shape of the per-user rate limiter — the only other
// process-wide mutable state in this system.
type Registry struct {
	mu      sync.Mutex
	actions map[ActionID]*Action
	order   []ActionID
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[ActionID]*Action)}
}

// Register adds a new action. Registering an id twice replaces the prior
// entry's handler/label in place but keeps its original position, so
// re-registration (e.g. swapping a handler to point at a newly
// constructed capture pipeline) doesn't reorder the palette.
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	stored := a
	r.actions[a.ID] = &stored
}

// Entry is a read-only snapshot of one action, safe to render without
// holding the registry's lock.
type Entry struct {
	ID      ActionID
	Label   string
	Keybind string
}

// List returns every registered action in registration order, with each
// label resolved to its current value.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		a := r.actions[id]
		label := string(a.ID)
		if a.Label != nil {
			label = a.Label()
		}
		entries = append(entries, Entry{ID: a.ID, Label: label, Keybind: a.Keybind})
	}
	return entries
}

// Invoke runs the handler registered for id. The lock is released before
// Run is called so a long-running action never blocks List/Register.
func (r *Registry) Invoke(ctx context.Context, id ActionID) error {
	r.mu.Lock()
	a, ok := r.actions[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("menu: no action registered for %q", id)
	}
	return a.Run(ctx)
}
