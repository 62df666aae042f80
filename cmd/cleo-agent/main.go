// cleo-agent is the desktop daemon: it watches foreground/input activity,
// captures screenshots and recordings, classifies them locally, and
// uploads batches to cleo-server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/cleo/pkg/agentclient"
	"github.com/codeready-toolchain/cleo/pkg/agentconfig"
	"github.com/codeready-toolchain/cleo/pkg/capture"
	"github.com/codeready-toolchain/cleo/pkg/nsfw"
	"github.com/codeready-toolchain/cleo/pkg/observer"
	"github.com/codeready-toolchain/cleo/pkg/spool"
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cleo.json"
	}
	return filepath.Join(home, ".config", "cleo.json")
}

func defaultSpoolDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cleo-spool"
	}
	return filepath.Join(home, ".cache", "cleo", "spool")
}

func main() {
	var configPath string
	var spoolDir string
	var modelPath string
	var ortLibPath string

	root := &cobra.Command{
		Use:   "cleo-agent",
		Short: "cleo desktop capture agent",
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to cleo.json")
	root.PersistentFlags().StringVar(&spoolDir, "spool-dir", defaultSpoolDir(), "local directory for pending captures")
	root.PersistentFlags().StringVar(&modelPath, "nsfw-model", os.Getenv("CLEO_NSFW_MODEL_PATH"), "path to the exported NSFW classifier ONNX model")
	root.PersistentFlags().StringVar(&ortLibPath, "onnxruntime-lib", os.Getenv("CLEO_ONNXRUNTIME_LIB"), "path to the onnxruntime shared library")

	root.AddCommand(newRunCmd(&configPath, &spoolDir, &modelPath, &ortLibPath))
	root.AddCommand(newLoginCmd(&configPath))
	root.AddCommand(newDoctorCmd(&configPath, &modelPath, &ortLibPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd(configPath, spoolDir, modelPath, ortLibPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "start the capture pipeline and upload loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd.Context(), *configPath, *spoolDir, *modelPath, *ortLibPath)
		},
	}
}

func newLoginCmd(configPath *string) *cobra.Command {
	var apiURL, apiToken string
	c := &cobra.Command{
		Use:   "login",
		Short: "store the API URL and bearer token in cleo.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiToken == "" {
				return errors.New("--token is required")
			}
			return writeLoginConfig(*configPath, apiURL, apiToken)
		},
	}
	c.Flags().StringVar(&apiURL, "api-url", "http://localhost:8080", "cleo-server base URL")
	c.Flags().StringVar(&apiToken, "token", "", "bearer API token issued by cleo-server")
	return c
}

func newDoctorCmd(configPath, modelPath, ortLibPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "check that the agent is configured and ready to run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(*configPath, *modelPath, *ortLibPath)
		},
	}
}

func writeLoginConfig(configPath, apiURL, apiToken string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	doc := fmt.Sprintf(`{"api_token":%q,"api_url":%q,"privacy":{"blocked_apps":[],"blocked_window_patterns":[],"secret_detection_enabled":true,"known_apps":[]}}`, apiToken, apiURL)
	if err := os.WriteFile(configPath, []byte(doc), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	fmt.Printf("wrote credentials to %s\n", configPath)
	return nil
}

func runDoctor(configPath, modelPath, ortLibPath string) error {
	loader, err := agentconfig.NewLoader(configPath)
	if err != nil {
		return fmt.Errorf("config: %w (run `cleo-agent login` first)", err)
	}
	cfg := loader.Current()
	if cfg.APIToken == "" {
		return errors.New("config: no api_token set, run `cleo-agent login`")
	}
	fmt.Println("config: ok")

	if modelPath == "" {
		fmt.Println("nsfw model: not configured, screenshots/recordings will upload unclassified")
		return nil
	}
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("nsfw model: %w", err)
	}
	fmt.Println("nsfw model: ok")
	return nil
}

// unsupportedScreenshotter and unsupportedRecorder stand in for the
// platform-specific screen capture/recording encoder, which has no
// cross-platform library in the retrieval pack and is out of scope here;
// a real build substitutes a GOOS-specific implementation of
// capture.Screenshotter/capture.Recorder.
type unsupportedScreenshotter struct{}

func (unsupportedScreenshotter) CaptureScreen(ctx context.Context) ([]byte, error) {
	return nil, errors.New("screen capture is not implemented for this platform build")
}

type unsupportedRecorder struct{}

func (unsupportedRecorder) Start(ctx context.Context) error {
	return errors.New("screen recording is not implemented for this platform build")
}

func (unsupportedRecorder) Stop(ctx context.Context) (string, error) {
	return "", errors.New("screen recording is not implemented for this platform build")
}

func runAgent(ctx context.Context, configPath, spoolDir, modelPath, ortLibPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := agentconfig.NewLoader(configPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	cfg := loader.Current()
	if cfg.APIToken == "" {
		return errors.New("no api_token configured, run `cleo-agent login` first")
	}

	spl, err := spool.New(spoolDir)
	if err != nil {
		return fmt.Errorf("failed to open spool directory: %w", err)
	}

	filter := observer.NewPrivacyFilter(cfg.Privacy.BlockedApps, cfg.Privacy.BlockedWindowPatterns)
	obs := observer.New(time.Now(), filter)
	loader.OnChange(func(c agentconfig.Config) {
		obs.SetPrivacyFilter(observer.NewPrivacyFilter(c.Privacy.BlockedApps, c.Privacy.BlockedWindowPatterns))
	})

	client := agentclient.New(cfg.APIURL, cfg.APIToken)

	var classify func(images [][]float32) ([]capture.Result, error)
	if modelPath != "" {
		if err := nsfw.Init(ortLibPath); err != nil {
			return fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
		defer nsfw.Shutdown()

		classifier, err := nsfw.NewClassifier(modelPath, nsfw.DefaultMaxBatch)
		if err != nil {
			return fmt.Errorf("failed to load nsfw classifier: %w", err)
		}
		defer classifier.Close()

		classify = func(images [][]float32) ([]capture.Result, error) {
			results, err := classifier.Classify(images)
			if err != nil {
				return nil, err
			}
			out := make([]capture.Result, len(results))
			for i, r := range results {
				out[i] = capture.Result{Unsafe: r.Unsafe}
			}
			return out, nil
		}
	} else {
		slog.Warn("no nsfw model configured, all screenshots and recordings upload unclassified")
		classify = func(images [][]float32) ([]capture.Result, error) {
			return make([]capture.Result, len(images)), nil
		}
	}

	upload := func(ctx context.Context, intervalID int64, files []capture.UploadFile) (*capture.UploadResult, error) {
		agentFiles := make([]agentclient.File, len(files))
		for i, f := range files {
			agentFiles[i] = agentclient.File{Name: f.Name, ContentType: f.ContentType, Data: f.Data}
		}
		result, err := client.UploadCaptureBatch(ctx, intervalID, agentFiles)
		if err != nil {
			return nil, err
		}
		return &capture.UploadResult{
			Uploaded:          result.Uploaded,
			Failed:            result.Failed,
			SuccessfulIndices: result.SuccessfulIndices,
		}, nil
	}

	pipelineCfg := capture.DefaultConfig()
	if limits, err := client.FetchLimits(ctx); err != nil {
		slog.Warn("failed to fetch limits, using default max recording duration", "error", err)
	} else if limits.MaxRecordingDurationSecs > 0 {
		pipelineCfg.MaxRecordingDuration = time.Duration(limits.MaxRecordingDurationSecs) * time.Second
	}

	pipeline := capture.New(obs, spl, unsupportedScreenshotter{}, unsupportedRecorder{}, nil, classify, upload, pipelineCfg)
	pipeline.Start(ctx)

	slog.Info("cleo-agent running", "api_url", cfg.APIURL, "spool_dir", spoolDir)
	<-ctx.Done()
	slog.Info("shutting down")
	pipeline.Stop()
	return nil
}
