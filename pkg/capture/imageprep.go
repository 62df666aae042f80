package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/codeready-toolchain/cleo/pkg/nsfw"
	"github.com/codeready-toolchain/cleo/pkg/phash"
)

// decodeAndHash decodes an encoded image and returns both the decoded
// image and its perceptual hash, used by the screenshot uploader's
// duplicate check.
func decodeAndHash(data []byte) (image.Image, phash.Hash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("capture: decode image: %w", err)
	}
	hash, err := phash.Compute(img)
	if err != nil {
		return nil, 0, fmt.Errorf("capture: compute perceptual hash: %w", err)
	}
	return img, hash, nil
}

// toCHWNormalized resizes img to the classifier's expected input size and
// flattens it to CHW float32, normalised to mean/std (0.5, 0.5) per
// channel: value = pixel/255 transformed to the range [-1, 1].
func toCHWNormalized(img image.Image) []float32 {
	resized := phash.Resize(img, nsfw.ImageSize, nsfw.ImageSize)
	bounds := resized.Bounds()

	out := make([]float32, nsfw.Channels*nsfw.ImageSize*nsfw.ImageSize)
	plane := nsfw.ImageSize * nsfw.ImageSize
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			out[0*plane+i] = normalize(uint8(r >> 8))
			out[1*plane+i] = normalize(uint8(g >> 8))
			out[2*plane+i] = normalize(uint8(b >> 8))
			i++
		}
	}
	return out
}

func normalize(v uint8) float32 {
	return (float32(v)/255 - 0.5) / 0.5
}
