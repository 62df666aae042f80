package ingest

// LimitsConfig is the GET /me/limits response: the recording and storage
// ceilings for a user. cmd/cleo-agent reads max_recording_duration_secs
// from it once at startup; it does not enforce the other fields.
type LimitsConfig struct {
	MaxRecordingDurationSecs int   `json:"max_recording_duration_secs"`
	RecordingBudgetSecs      int   `json:"recording_budget_secs"`
	InactivityTimeoutSecs    int   `json:"inactivity_timeout_secs"`
	StorageLimitBytes        int64 `json:"storage_limit_bytes"`
	StorageUsedBytes         int64 `json:"storage_used_bytes"`
}

// DefaultLimitsConfig returns the built-in recording/storage limits. Its
// 300 s MaxRecordingDurationSecs matches the desktop agent's own fallback;
// the agent has no fallback values for the other fields.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxRecordingDurationSecs: 300,
		RecordingBudgetSecs:      3600,
		InactivityTimeoutSecs:    120,
		StorageLimitBytes:        50 * 1024 * 1024 * 1024,
	}
}
