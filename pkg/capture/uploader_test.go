package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/cleo/pkg/observer"
	"github.com/codeready-toolchain/cleo/pkg/spool"
)

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRunScreenshotUploadCycle_DedupsAgainstPreviousHash(t *testing.T) {
	obs := observer.New(time.Now(), observer.PrivacyFilter{})
	spl, err := spool.New(t.TempDir())
	require.NoError(t, err)

	red := solidPNG(t, color.RGBA{R: 255, A: 255})
	_, err = spl.Write(spool.KindScreenshot, time.Now(), ".png", red)
	require.NoError(t, err)
	_, err = spl.Write(spool.KindScreenshot, time.Now().Add(time.Second), ".png", red)
	require.NoError(t, err)

	var uploadedCount int
	upload := func(ctx context.Context, intervalID int64, files []UploadFile) (*UploadResult, error) {
		uploadedCount = len(files)
		return &UploadResult{Uploaded: len(files)}, nil
	}

	p := New(obs, spl, &fakeScreenshotter{}, &fakeRecorder{}, nil, allSafeClassifier, upload, DefaultConfig())
	p.runScreenshotUploadCycle(t.Context())

	assert.Equal(t, 1, uploadedCount)
	remaining, err := spl.List(spool.KindScreenshot)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunScreenshotUploadCycle_DropsUnsafeImagesWithoutUploading(t *testing.T) {
	obs := observer.New(time.Now(), observer.PrivacyFilter{})
	spl, err := spool.New(t.TempDir())
	require.NoError(t, err)

	_, err = spl.Write(spool.KindScreenshot, time.Now(), ".png", solidPNG(t, color.RGBA{G: 255, A: 255}))
	require.NoError(t, err)

	unsafeClassifier := func(images [][]float32) ([]Result, error) {
		out := make([]Result, len(images))
		for i := range out {
			out[i] = Result{Unsafe: true}
		}
		return out, nil
	}

	uploadCalled := false
	upload := func(ctx context.Context, intervalID int64, files []UploadFile) (*UploadResult, error) {
		uploadCalled = true
		return &UploadResult{}, nil
	}

	p := New(obs, spl, &fakeScreenshotter{}, &fakeRecorder{}, nil, unsafeClassifier, upload, DefaultConfig())
	p.runScreenshotUploadCycle(t.Context())

	assert.False(t, uploadCalled)
	remaining, err := spl.List(spool.KindScreenshot)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunScreenshotUploadCycle_ClassifierErrorDropsWholeBatch(t *testing.T) {
	obs := observer.New(time.Now(), observer.PrivacyFilter{})
	spl, err := spool.New(t.TempDir())
	require.NoError(t, err)

	_, err = spl.Write(spool.KindScreenshot, time.Now(), ".png", solidPNG(t, color.RGBA{B: 255, A: 255}))
	require.NoError(t, err)

	failingClassifier := func(images [][]float32) ([]Result, error) {
		return nil, assertErr{}
	}

	p := New(obs, spl, &fakeScreenshotter{}, &fakeRecorder{}, nil, failingClassifier, noopUpload, DefaultConfig())
	p.runScreenshotUploadCycle(t.Context())

	remaining, err := spl.List(spool.KindScreenshot)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunScreenshotUploadCycle_NetworkFailureRetainsFiles(t *testing.T) {
	obs := observer.New(time.Now(), observer.PrivacyFilter{})
	spl, err := spool.New(t.TempDir())
	require.NoError(t, err)

	_, err = spl.Write(spool.KindScreenshot, time.Now(), ".png", solidPNG(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}))
	require.NoError(t, err)

	failingUpload := func(ctx context.Context, intervalID int64, files []UploadFile) (*UploadResult, error) {
		return nil, assertErr{}
	}

	p := New(obs, spl, &fakeScreenshotter{}, &fakeRecorder{}, nil, allSafeClassifier, failingUpload, DefaultConfig())
	p.runScreenshotUploadCycle(t.Context())

	remaining, err := spl.List(spool.KindScreenshot)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRunRecordingUploadCycle_NoSamplerUploadsUnclassified(t *testing.T) {
	obs := observer.New(time.Now(), observer.PrivacyFilter{})
	spl, err := spool.New(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "in-progress.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))
	_, err = spl.FinalizeFrom(spool.KindRecording, time.Now(), ".mp4", src)
	require.NoError(t, err)

	var uploaded int
	upload := func(ctx context.Context, intervalID int64, files []UploadFile) (*UploadResult, error) {
		uploaded = len(files)
		return &UploadResult{Uploaded: len(files)}, nil
	}

	p := New(obs, spl, &fakeScreenshotter{}, &fakeRecorder{}, nil, allSafeClassifier, upload, DefaultConfig())
	p.runRecordingUploadCycle(t.Context())

	assert.Equal(t, 1, uploaded)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
