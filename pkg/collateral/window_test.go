package collateral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeWindow_NoPriorRun(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	start, end := computeWindow(nil, now)

	assert.Equal(t, now, end)
	assert.Equal(t, now.Add(-maxWindow), start)
}

func TestComputeWindow_RecentPriorRun(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	lastEnd := now.Add(-30 * time.Minute)

	start, end := computeWindow(&lastEnd, now)

	assert.Equal(t, now, end)
	assert.Equal(t, lastEnd, start)
}

func TestComputeWindow_StalePriorRunClampsToMaxWindow(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	lastEnd := now.Add(-48 * time.Hour)

	start, end := computeWindow(&lastEnd, now)

	assert.Equal(t, now, end)
	assert.Equal(t, now.Add(-maxWindow), start)
}
