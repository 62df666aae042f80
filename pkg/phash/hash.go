// Package phash computes perceptual hashes used to deduplicate near-identical
// screenshots and extracted video frames before they are persisted.
package phash

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// Hash is an average-hash perceptual fingerprint of a decoded image.
type Hash uint64

// Compute returns img's average hash.
func Compute(img image.Image) (Hash, error) {
	h, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute perceptual hash: %w", err)
	}
	return Hash(h.GetHash()), nil
}

// Distance returns the Hamming distance between two hashes: the count of
// differing bits. 0 means identical; larger means more visually distinct.
func Distance(a, b Hash) int {
	x := uint64(a) ^ uint64(b)
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}

// Base64 encodes the hash the way frame manifests store it.
func (h Hash) Base64() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(h))
	return base64.StdEncoding.EncodeToString(buf[:])
}

// Resize scales img to exactly w×h using Lanczos resampling, the target
// size used for both extracted frames and stored thumbnails.
func Resize(img image.Image, w, h int) image.Image {
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
