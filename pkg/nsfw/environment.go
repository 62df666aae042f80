package nsfw

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// Init loads the onnxruntime shared library and initializes the global
// environment. Must be called exactly once per process before the first
// NewClassifier call; sharedLibPath may be empty to use the platform
// default search path.
func Init(sharedLibPath string) error {
	envOnce.Do(func() {
		if sharedLibPath != "" {
			ort.SetSharedLibraryPath(sharedLibPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("nsfw: initialize onnxruntime environment: %w", err)
		}
	})
	return envErr
}

// Shutdown tears down the onnxruntime environment. Intended for process
// exit and tests; classifiers created before this call become unusable.
func Shutdown() error {
	return ort.DestroyEnvironment()
}
