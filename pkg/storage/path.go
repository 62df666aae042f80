package storage

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// CapturePath builds the canonical storage key for a newly ingested capture:
// "{media_type}/user_{uid}/{YYYY-MM-DD}/{epoch_ms}.{ext}".
func CapturePath(userID, mediaType, ext string, at time.Time) string {
	day := at.UTC().Format("2006-01-02")
	epochMS := at.UnixMilli()
	return path.Join(mediaType, "user_"+userID, day, strconv.FormatInt(epochMS, 10)+"."+ext)
}

// FramesDir derives a capture's frames folder from its storage path. A
// capture stored at "{media_type}/{rest}/{stem}.{ext}" has its frames at
// "frames/{rest}/{stem}/".
func FramesDir(captureStoragePath string) string {
	rest, stem := splitMediaPath(captureStoragePath)
	return path.Join("frames", rest, stem)
}

// ManifestKey returns the manifest.json key inside a capture's frames folder.
func ManifestKey(captureStoragePath string) string {
	return path.Join(FramesDir(captureStoragePath), "manifest.json")
}

// FrameKey returns the storage key for the nth deduplicated frame of a capture.
func FrameKey(captureStoragePath string, index int) string {
	return path.Join(FramesDir(captureStoragePath), frameFileName(index))
}

// ThumbnailKey derives a capture's thumbnail key by swapping its leading
// media-type segment for "thumbnails" and forcing a .jpg extension.
func ThumbnailKey(captureStoragePath string) string {
	rest, stem := splitMediaPath(captureStoragePath)
	return path.Join("thumbnails", rest, stem+".jpg")
}

// splitMediaPath strips the leading "{media_type}/" segment and the file
// extension, returning the remaining directory portion and the bare stem.
func splitMediaPath(storagePath string) (rest, stem string) {
	clean := path.Clean(storagePath)
	parts := strings.SplitN(clean, "/", 2)
	if len(parts) != 2 {
		return "", strings.TrimSuffix(clean, path.Ext(clean))
	}
	tail := parts[1]
	dir := path.Dir(tail)
	base := path.Base(tail)
	base = strings.TrimSuffix(base, path.Ext(base))
	if dir == "." {
		return "", base
	}
	return dir, base
}

func frameFileName(index int) string {
	return "frame_" + strconv.Itoa(index) + ".jpg"
}
