// Package nsfw wraps a five-class image classifier (drawings, hentai,
// neutral, porn, sexy) used by the capture pipeline to decide whether a
// screenshot or recording frame is safe to keep and upload.
//
// Inference runs through github.com/yalue/onnxruntime_go against a
// ViT-style ONNX model. A single session is shared across the process;
// callers must not run two batches concurrently, which Classifier
// enforces internally with a mutex rather than leaving it to callers.
package nsfw

import (
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// ImageSize is the square side length every input image must already
	// be resized to before reaching Classify.
	ImageSize = 224
	// Channels is the RGB channel count of each input image, CHW layout.
	Channels = 3

	// DefaultMaxBatch matches the capture pipeline's upload batch size.
	DefaultMaxBatch = 30

	// unsafeThreshold is the decision boundary: an image is unsafe iff the
	// max of P[hentai], P[porn], P[sexy] is at least this.
	unsafeThreshold = 0.05
)

// Class indexes the five output classes, in the model's native order.
type Class int

const (
	ClassDrawings Class = iota
	ClassHentai
	ClassNeutral
	ClassPorn
	ClassSexy
	numClasses
)

var classNames = [numClasses]string{"drawings", "hentai", "neutral", "porn", "sexy"}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Result is one image's classification.
type Result struct {
	Probabilities [numClasses]float32
	Unsafe        bool
}

// session is the subset of *ort.DynamicAdvancedSession the classifier
// needs, narrowed so tests can substitute a fake without loading a real
// ONNX model.
type session interface {
	Run(inputs, outputs []ort.Value) error
	Destroy() error
}

// Classifier holds one loaded model and serializes batches through it.
type Classifier struct {
	mu       sync.Mutex
	sess     session
	maxBatch int
}

// modelInputName / modelOutputName are the ONNX graph's I/O tensor names.
const (
	modelInputName  = "input"
	modelOutputName = "output"
)

// NewClassifier loads the ONNX model at modelPath. Init must have been
// called once per process before this.
func NewClassifier(modelPath string, maxBatch int) (*Classifier, error) {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	sess, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{modelInputName}, []string{modelOutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("nsfw: load model %s: %w", modelPath, err)
	}
	return &Classifier{sess: sess, maxBatch: maxBatch}, nil
}

// Close releases the underlying session.
func (c *Classifier) Close() error {
	return c.sess.Destroy()
}

// Classify runs one forward pass over images, each a flattened CHW
// float32 slice of length Channels*ImageSize*ImageSize already resized
// and normalised to mean/std (0.5, 0.5) per channel. An error here means
// the whole batch is undecided; callers must treat that as fail-closed
// (discard the batch) rather than assume safety.
func (c *Classifier) Classify(images [][]float32) ([]Result, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if len(images) > c.maxBatch {
		return nil, fmt.Errorf("nsfw: batch of %d exceeds max %d", len(images), c.maxBatch)
	}

	const perImage = Channels * ImageSize * ImageSize
	flat := make([]float32, 0, len(images)*perImage)
	for i, img := range images {
		if len(img) != perImage {
			return nil, fmt.Errorf("nsfw: image %d has %d values, want %d", i, len(img), perImage)
		}
		flat = append(flat, img...)
	}

	inputShape := ort.NewShape(int64(len(images)), Channels, ImageSize, ImageSize)
	input, err := ort.NewTensor(inputShape, flat)
	if err != nil {
		return nil, fmt.Errorf("nsfw: build input tensor: %w", err)
	}
	defer input.Destroy()

	outputShape := ort.NewShape(int64(len(images)), int64(numClasses))
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("nsfw: build output tensor: %w", err)
	}
	defer output.Destroy()

	c.mu.Lock()
	err = c.sess.Run([]ort.Value{input}, []ort.Value{output})
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("nsfw: forward pass: %w", err)
	}

	raw := output.GetData()
	results := make([]Result, len(images))
	for i := range images {
		logits := raw[i*int(numClasses) : (i+1)*int(numClasses)]
		probs := softmax(logits)
		var r Result
		copy(r.Probabilities[:], probs)
		r.Unsafe = unsafeScore(r.Probabilities) >= unsafeThreshold
		results[i] = r
	}
	return results, nil
}

func unsafeScore(p [numClasses]float32) float32 {
	m := p[ClassHentai]
	if p[ClassPorn] > m {
		m = p[ClassPorn]
	}
	if p[ClassSexy] > m {
		m = p[ClassSexy]
	}
	return m
}

func softmax(logits []float32) []float32 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	exps := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - max))
		exps[i] = e
		sum += e
	}
	out := make([]float32, len(logits))
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}
