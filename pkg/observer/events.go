// Package observer watches desktop activity — foreground app switches,
// mouse clicks, key presses — and tags each event with the interval id
// the capture pipeline and server both key captures by.
package observer

import "time"

// EventType discriminates the three signals the observer watches.
type EventType string

const (
	EventForegroundSwitch EventType = "foreground_switch"
	EventMouseClick       EventType = "mouse_click"
	EventKeypress         EventType = "keypress"
)

// Event is one observed activity signal. Only ForegroundSwitch carries
// payload (app, window title); clicks and keypresses are presence-only —
// no key content or click coordinates are ever captured.
type Event struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	IntervalID  int64     `json:"interval_id"`
	App         string    `json:"app,omitempty"`
	WindowTitle string    `json:"window_title,omitempty"`
}
