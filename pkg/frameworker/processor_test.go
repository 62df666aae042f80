package frameworker

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/cleo/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_ProcessImage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := storage.NewFileStore(dir)

	storagePath := "image/user_1/2026-07-30/1000.png"
	require.NoError(t, store.Put(ctx, storagePath, bytes.NewReader(solidPNG(t, 1920, 1080, color.RGBA{R: 50, G: 60, B: 70, A: 255}))))

	proc := NewProcessor(store, &FFmpeg{})
	count, err := proc.Process(ctx, ClaimedCapture{
		ID:          "cap-1",
		MediaType:   "image",
		StoragePath: storagePath,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	frameBytes, err := os.ReadFile(filepath.Join(dir, "frames/user_1/2026-07-30/1000/frame_0.jpg"))
	require.NoError(t, err)
	assert.NotEmpty(t, frameBytes)

	img, _, err := image.Decode(bytes.NewReader(frameBytes))
	require.NoError(t, err)
	assert.Equal(t, 960, img.Bounds().Dx())
	assert.Equal(t, 540, img.Bounds().Dy())

	manifestBytes, err := os.ReadFile(filepath.Join(dir, "frames/user_1/2026-07-30/1000/manifest.json"))
	require.NoError(t, err)

	var manifest Manifest
	require.NoError(t, json.Unmarshal(manifestBytes, &manifest))
	require.Len(t, manifest.Entries, 1)
	assert.Equal(t, "frame_0.jpg", manifest.Entries[0].Filename)
	assert.NotEmpty(t, manifest.Entries[0].PHashBase64)
}

func TestProcessor_Process_UnsupportedMediaType(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	proc := NewProcessor(store, &FFmpeg{})

	_, err := proc.Process(context.Background(), ClaimedCapture{MediaType: "audio"})
	assert.Error(t, err)
}
