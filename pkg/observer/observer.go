package observer

import (
	"sync"
	"time"
)

// intervalWindow is the bucket width interval ids are computed against:
// wall-clock elapsed since process start, divided into 300-second
// buckets. Two daemons started at different times produce overlapping
// ids — a known, accepted limitation, not a bug.
const intervalWindow = 300 * time.Second

// Observer turns raw OS-hook callbacks (foreground switch, mouse click,
// key down) into a filtered, interval-tagged event stream. It does not
// install the OS hook itself — that is platform-specific and explicitly
// out of scope; callers wire a platform hook to call Report* below.
type Observer struct {
	startTime time.Time
	filter    PrivacyFilter
	known     *knownApps
	events    chan Event

	mu            sync.Mutex
	lastInputAt   time.Time
	currentApp    string
	currentWindow string
}

// New creates an Observer anchored at startTime (normally time.Now() at
// process start) with the given privacy filter. events is buffered so a
// burst of clicks never blocks the OS callback thread.
func New(startTime time.Time, filter PrivacyFilter) *Observer {
	return &Observer{
		startTime:   startTime,
		filter:      filter,
		known:       newKnownApps(),
		events:      make(chan Event, 256),
		lastInputAt: startTime,
	}
}

// Events returns the filtered event stream. Consumers should drain it
// continuously; a full buffer causes ReportX calls to drop the oldest
// pending event rather than block the caller.
func (o *Observer) Events() <-chan Event {
	return o.events
}

// SetPrivacyFilter swaps the active filter, used for cleo.json hot reload.
func (o *Observer) SetPrivacyFilter(filter PrivacyFilter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = filter
}

// IntervalID returns the monotonic interval bucket for at.
func (o *Observer) IntervalID(at time.Time) int64 {
	return int64(at.Sub(o.startTime) / intervalWindow)
}

// IdleSeconds returns seconds since the last reported input (click or
// keypress; foreground switches alone don't reset idle time).
func (o *Observer) IdleSeconds(now time.Time) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return now.Sub(o.lastInputAt).Seconds()
}

// KnownApps returns the deduplicated, most-recently-seen-first list of
// foreground apps observed so far.
func (o *Observer) KnownApps() []string {
	return o.known.snapshot()
}

// ReportForegroundSwitch records a foreground app change at time at.
func (o *Observer) ReportForegroundSwitch(app, windowTitle string, at time.Time) {
	o.known.record(app)

	o.mu.Lock()
	o.currentApp = app
	o.currentWindow = windowTitle
	blocked := o.filter.Blocks(app, windowTitle)
	o.mu.Unlock()
	if blocked {
		return
	}

	o.emit(Event{
		Type:        EventForegroundSwitch,
		Timestamp:   at,
		IntervalID:  o.IntervalID(at),
		App:         app,
		WindowTitle: windowTitle,
	})
}

// ReportMouseClick records a button press at time at against currentApp /
// currentWindow for privacy-filter evaluation.
func (o *Observer) ReportMouseClick(currentApp, currentWindow string, at time.Time) {
	o.touchInput(at)
	if o.blocked(currentApp, currentWindow) {
		return
	}
	o.emit(Event{Type: EventMouseClick, Timestamp: at, IntervalID: o.IntervalID(at)})
}

// ReportKeypress records a key-down at time at. No key content is ever
// captured, so the event carries no payload beyond its timestamp.
func (o *Observer) ReportKeypress(currentApp, currentWindow string, at time.Time) {
	o.touchInput(at)
	if o.blocked(currentApp, currentWindow) {
		return
	}
	o.emit(Event{Type: EventKeypress, Timestamp: at, IntervalID: o.IntervalID(at)})
}

func (o *Observer) touchInput(at time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if at.After(o.lastInputAt) {
		o.lastInputAt = at
	}
}

func (o *Observer) blocked(app, windowTitle string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filter.Blocks(app, windowTitle)
}

// CurrentForeground returns the most recently reported foreground app
// and window title, regardless of whether that app is privacy-filtered.
func (o *Observer) CurrentForeground() (app, windowTitle string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentApp, o.currentWindow
}

// Blocked reports whether app/windowTitle match the active privacy
// filter, for callers (the capture pipeline's screenshot and recording
// loops) that need to suppress their own capture at the source rather
// than relying on an emitted Event.
func (o *Observer) Blocked(app, windowTitle string) bool {
	return o.blocked(app, windowTitle)
}

func (o *Observer) emit(evt Event) {
	select {
	case o.events <- evt:
	default:
		// Buffer full: drop the oldest pending event to make room rather
		// than block the OS callback thread.
		select {
		case <-o.events:
		default:
		}
		select {
		case o.events <- evt:
		default:
		}
	}
}
