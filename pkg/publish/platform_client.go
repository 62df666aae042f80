// Package publish implements the post-publish state machine for drafted
// tweets and threads: claiming a draft, uploading its media to the external
// platform, posting it, and recording the result. It wraps the atomic
// persistence primitives on TweetService/ThreadService with the external
// HTTP calls and retry policy those primitives don't know about.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/codeready-toolchain/cleo/pkg/config"
)

// ProgressFunc reports chunked-upload progress: segment is 1-indexed,
// total is the segment count. Called once before each chunk and once more
// after the last chunk completes.
type ProgressFunc func(segment, total int)

// MediaUpload is the result of uploading one piece of media: an external
// media id to attach to the post.
type MediaUpload struct {
	MediaID string
}

// PostResult is the external platform's response to a tweet post call.
type PostResult struct {
	ExternalID string
}

// PlatformClient is the external social platform surface the orchestrator
// needs: image upload, chunked video upload, and posting text+media.
type PlatformClient interface {
	UploadImage(ctx context.Context, accessToken string, data []byte, contentType string) (MediaUpload, error)
	UploadVideo(ctx context.Context, accessToken string, data []byte, contentType string, progress ProgressFunc) (MediaUpload, error)
	PostTweet(ctx context.Context, accessToken, text string, mediaIDs []string, replyToExternalID string) (PostResult, error)
}

// HTTPPlatformClient is the default PlatformClient, talking to the external
// platform's REST + chunked media upload API over plain net/http.
type HTTPPlatformClient struct {
	baseURL        string
	httpClient     *http.Client
	chunkSizeBytes int
	checkAfter     time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewHTTPPlatformClient creates a platform client. chunkSizeBytes controls
// the APPEND segment size for chunked video upload (the platform's limit is
// 1 MiB); checkAfter is the STATUS poll interval while a video processes.
func NewHTTPPlatformClient(baseURL string, chunkSizeBytes int, checkAfter time.Duration, maxRetries int, retryBaseDelay time.Duration) *HTTPPlatformClient {
	return &HTTPPlatformClient{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		chunkSizeBytes: chunkSizeBytes,
		checkAfter:     checkAfter,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// NewHTTPPlatformClientFromConfig builds an HTTPPlatformClient from a
// resolved PublishConfig.
func NewHTTPPlatformClientFromConfig(baseURL string, cfg *config.PublishConfig) *HTTPPlatformClient {
	return NewHTTPPlatformClient(baseURL, cfg.MediaChunkSizeBytes, cfg.StatusCheckInterval, cfg.MaxRetries, cfg.RetryBaseDelay)
}

func (c *HTTPPlatformClient) backoffPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBaseDelay
	return backoff.WithMaxRetries(b, uint64(c.maxRetries))
}

// UploadImage posts a single image in one request (the platform's "simple"
// media upload endpoint handles images without chunking).
func (c *HTTPPlatformClient) UploadImage(ctx context.Context, accessToken string, data []byte, contentType string) (MediaUpload, error) {
	var result MediaUpload

	op := func() error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("media", "image")
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build image upload form: %w", err))
		}
		if _, err := part.Write(data); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to write image bytes: %w", err))
		}
		if err := mw.Close(); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to close image upload form: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media/upload", &buf)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+accessToken)

		var mediaResp struct {
			MediaIDString string `json:"media_id_string"`
		}
		if err := c.doJSON(req, &mediaResp); err != nil {
			return err
		}
		result = MediaUpload{MediaID: mediaResp.MediaIDString}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.backoffPolicy(), ctx)); err != nil {
		return MediaUpload{}, fmt.Errorf("image upload failed: %w", err)
	}
	return result, nil
}

// UploadVideo runs the INIT -> APPEND* -> FINALIZE -> STATUS chunked upload
// sequence for a single video clip.
func (c *HTTPPlatformClient) UploadVideo(ctx context.Context, accessToken string, data []byte, contentType string, progress ProgressFunc) (MediaUpload, error) {
	mediaID, err := c.initUpload(ctx, accessToken, len(data), contentType)
	if err != nil {
		return MediaUpload{}, fmt.Errorf("video upload init failed: %w", err)
	}

	if err := c.appendChunks(ctx, accessToken, mediaID, data, progress); err != nil {
		return MediaUpload{}, fmt.Errorf("video upload append failed: %w", err)
	}

	state, err := c.finalizeUpload(ctx, accessToken, mediaID)
	if err != nil {
		return MediaUpload{}, fmt.Errorf("video upload finalize failed: %w", err)
	}

	if state != "succeeded" {
		state, err = c.pollStatus(ctx, accessToken, mediaID)
		if err != nil {
			return MediaUpload{}, fmt.Errorf("video upload status poll failed: %w", err)
		}
	}
	if state != "succeeded" {
		return MediaUpload{}, fmt.Errorf("video processing failed with state %q", state)
	}

	return MediaUpload{MediaID: mediaID}, nil
}

func (c *HTTPPlatformClient) initUpload(ctx context.Context, accessToken string, totalBytes int, contentType string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"media_type":     contentType,
		"total_bytes":    totalBytes,
		"media_category": "tweet_video",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media/upload/init", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var resp struct {
		MediaID string `json:"media_id"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	return resp.MediaID, nil
}

func (c *HTTPPlatformClient) appendChunks(ctx context.Context, accessToken, mediaID string, data []byte, progress ProgressFunc) error {
	total := (len(data) + c.chunkSizeBytes - 1) / c.chunkSizeBytes
	if total == 0 {
		total = 1
	}

	for i := 0; i*c.chunkSizeBytes < len(data) || i == 0; i++ {
		start := i * c.chunkSizeBytes
		if start >= len(data) {
			break
		}
		end := start + c.chunkSizeBytes
		if end > len(data) {
			end = len(data)
		}

		if progress != nil {
			progress(i+1, total)
		}

		if err := c.appendSegment(ctx, accessToken, mediaID, i, data[start:end]); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}

	if progress != nil {
		progress(total, total)
	}
	return nil
}

func (c *HTTPPlatformClient) appendSegment(ctx context.Context, accessToken, mediaID string, segmentIndex int, chunk []byte) error {
	op := func() error {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("segment_index", fmt.Sprintf("%d", segmentIndex)); err != nil {
			return backoff.Permanent(err)
		}
		if err := mw.WriteField("media_id", mediaID); err != nil {
			return backoff.Permanent(err)
		}
		part, err := mw.CreateFormFile("media", "segment")
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := part.Write(chunk); err != nil {
			return backoff.Permanent(err)
		}
		if err := mw.Close(); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media/upload/append", &buf)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+accessToken)

		return c.doJSON(req, nil)
	}

	return backoff.Retry(op, backoff.WithContext(c.backoffPolicy(), ctx))
}

func (c *HTTPPlatformClient) finalizeUpload(ctx context.Context, accessToken, mediaID string) (string, error) {
	body, err := json.Marshal(map[string]string{"media_id": mediaID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media/upload/finalize", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var resp struct {
		ProcessingInfo struct {
			State string `json:"state"`
		} `json:"processing_info"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.ProcessingInfo.State == "" {
		return "succeeded", nil
	}
	return resp.ProcessingInfo.State, nil
}

func (c *HTTPPlatformClient) pollStatus(ctx context.Context, accessToken, mediaID string) (string, error) {
	ticker := time.NewTicker(c.checkAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				fmt.Sprintf("%s/media/upload/status?media_id=%s", c.baseURL, mediaID), nil)
			if err != nil {
				return "", err
			}
			req.Header.Set("Authorization", "Bearer "+accessToken)

			var resp struct {
				ProcessingInfo struct {
					State string `json:"state"`
				} `json:"processing_info"`
			}
			if err := c.doJSON(req, &resp); err != nil {
				return "", err
			}
			if resp.ProcessingInfo.State == "succeeded" || resp.ProcessingInfo.State == "failed" {
				return resp.ProcessingInfo.State, nil
			}
		}
	}
}

// PostTweet posts text with attached media ids, optionally as a reply.
func (c *HTTPPlatformClient) PostTweet(ctx context.Context, accessToken, text string, mediaIDs []string, replyToExternalID string) (PostResult, error) {
	var result PostResult

	op := func() error {
		payload := map[string]any{"text": text}
		if len(mediaIDs) > 0 {
			payload["media"] = map[string]any{"media_ids": mediaIDs}
		}
		if replyToExternalID != "" {
			payload["reply"] = map[string]any{"in_reply_to_tweet_id": replyToExternalID}
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+accessToken)

		var resp struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := c.doJSON(req, &resp); err != nil {
			return err
		}
		result = PostResult{ExternalID: resp.Data.ID}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.backoffPolicy(), ctx)); err != nil {
		return PostResult{}, fmt.Errorf("post tweet failed: %w", err)
	}
	return result, nil
}

func (c *HTTPPlatformClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("platform API status %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return backoff.Permanent(fmt.Errorf("platform API status %d: %s", resp.StatusCode, string(body)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
