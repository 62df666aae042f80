package collateral

import "time"

// maxWindow bounds how far back a run looks when there is no prior
// completed run to anchor on (or the prior run ended further back than
// this), so a long-idle account doesn't get one enormous first window.
const maxWindow = 4 * time.Hour

// computeWindow returns [start, end) for a new run: end is now, start is
// the later of (the last successful run's end) and (now - maxWindow).
func computeWindow(lastCompletedEnd *time.Time, now time.Time) (start, end time.Time) {
	end = now
	start = now.Add(-maxWindow)

	if lastCompletedEnd != nil && lastCompletedEnd.After(start) {
		start = *lastCompletedEnd
	}

	return start, end
}
