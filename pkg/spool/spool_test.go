package spool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpool_Write_CreatesFinalFileNotTemp(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := s.Write(KindScreenshot, time.Now(), ".png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.False(t, strings.HasSuffix(path, ".tmp"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSpool_List_OrdersByCaptureTimeAndSkipsTemp(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p1, err := s.Write(KindScreenshot, base, ".png", []byte("a"))
	require.NoError(t, err)
	p2, err := s.Write(KindScreenshot, base.Add(time.Second), ".png", []byte("b"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.dir(KindScreenshot), "99999999999999999999-000999.png.tmp"), []byte("partial"), 0o644))

	entries, err := s.List(KindScreenshot)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, p1, entries[0].Path)
	assert.Equal(t, p2, entries[1].Path)
}

func TestSpool_Remove_MissingFileIsNotError(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Remove(filepath.Join(s.dir(KindScreenshot), "nope.png")))
}

func TestSpool_FinalizeFrom_MovesExistingFileIntoSpool(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "in-progress.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	final, err := s.FinalizeFrom(KindRecording, time.Now(), ".mp4", src)
	require.NoError(t, err)

	assert.FileExists(t, final)
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestParseSeq_ReadsDisambiguatingSuffix(t *testing.T) {
	n, err := parseSeq("00000000001234567890-000042.png")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
