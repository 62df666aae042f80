package capture

// State is the recording state machine's current state.
type State int

const (
	// StateIdle: no recording in progress.
	StateIdle State = iota
	// StateRecording: actively recording, either user-started or
	// auto-triggered.
	StateRecording
	// StateRecordingAutoStopPending: a recording is in the process of
	// being stopped and finalized into the spool, whichever of user stop,
	// max duration, or auto-stop grace ended it.
	StateRecordingAutoStopPending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateRecordingAutoStopPending:
		return "recording_auto_stop_pending"
	default:
		return "unknown"
	}
}
