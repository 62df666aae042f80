package capture

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/cleo/pkg/observer"
	"github.com/codeready-toolchain/cleo/pkg/spool"
)

type fakeScreenshotter struct {
	calls atomic.Int64
}

func (f *fakeScreenshotter) CaptureScreen(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	return []byte("png-data"), nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  int
	stopped  int
	stopPath string
}

func (f *fakeRecorder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return nil
}

func (f *fakeRecorder) Stop(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return f.stopPath, nil
}

func allSafeClassifier(images [][]float32) ([]Result, error) {
	out := make([]Result, len(images))
	return out, nil
}

func noopUpload(ctx context.Context, intervalID int64, files []UploadFile) (*UploadResult, error) {
	return &UploadResult{Uploaded: len(files)}, nil
}

func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, *fakeRecorder, *spool.Spool) {
	t.Helper()
	obs := observer.New(time.Now(), observer.PrivacyFilter{})
	spl, err := spool.New(t.TempDir())
	require.NoError(t, err)
	rec := &fakeRecorder{}
	p := New(obs, spl, &fakeScreenshotter{}, rec, nil, allSafeClassifier, noopUpload, cfg)
	return p, rec, spl
}

func TestPipeline_TriggerRecording_TransitionsIdleToRecording(t *testing.T) {
	cfg := DefaultConfig()
	p, rec, _ := newTestPipeline(t, cfg)

	require.NoError(t, p.TriggerRecording(t.Context()))
	assert.Equal(t, StateRecording, p.State())
	assert.Equal(t, 1, rec.started)

	assert.ErrorIs(t, p.TriggerRecording(t.Context()), ErrAlreadyRecording)
}

func TestPipeline_StopRecording_ReturnsToIdleAndFinalizesIntoSpool(t *testing.T) {
	cfg := DefaultConfig()
	p, rec, spl := newTestPipeline(t, cfg)

	srcDir := t.TempDir()
	src := srcDir + "/rec.mp4"
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))
	rec.stopPath = src

	require.NoError(t, p.TriggerRecording(t.Context()))
	require.NoError(t, p.StopRecording(t.Context()))

	assert.Equal(t, StateIdle, p.State())
	entries, err := spl.List(spool.KindRecording)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPipeline_StopRecording_OnIdleIsNoop(t *testing.T) {
	p, rec, _ := newTestPipeline(t, DefaultConfig())
	require.NoError(t, p.StopRecording(t.Context()))
	assert.Equal(t, 0, rec.stopped)
}

func TestBurstTracker_TriggersOnForegroundSwitch(t *testing.T) {
	b := newBurstTracker(5*time.Second, 5)
	now := time.Now()
	assert.False(t, b.triggered(now))
	b.recordForegroundSwitch(now)
	assert.True(t, b.triggered(now))
}

func TestBurstTracker_TriggersOnClickThreshold(t *testing.T) {
	b := newBurstTracker(5*time.Second, 5)
	now := time.Now()
	for i := 0; i < 4; i++ {
		b.recordInput(now)
	}
	assert.False(t, b.triggered(now))
	b.recordInput(now)
	assert.True(t, b.triggered(now))
}

func TestBurstTracker_PrunesStaleEntriesOutsideWindow(t *testing.T) {
	b := newBurstTracker(5*time.Second, 1)
	start := time.Now()
	b.recordForegroundSwitch(start)
	assert.False(t, b.triggered(start.Add(10*time.Second)))
}

func TestBurstTracker_IdleSince_TracksLastActivityAcrossReset(t *testing.T) {
	b := newBurstTracker(5*time.Second, 5)
	start := time.Now()
	b.reset(start)
	assert.Equal(t, time.Duration(0), b.idleSince(start))
	assert.Equal(t, 10*time.Second, b.idleSince(start.Add(10*time.Second)))

	b.recordInput(start.Add(20 * time.Second))
	assert.Equal(t, time.Duration(0), b.idleSince(start.Add(20*time.Second)))
}

