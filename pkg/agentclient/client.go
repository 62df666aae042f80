// Package agentclient is the desktop agent's typed HTTP client for the
// cleo ingest API: batch capture upload, activity upload, and the
// per-user limits fetch. Modeled on pkg/ocr.Client's shape (bearer auth,
// fixed timeout, non-2xx surfaces status + body).
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultTimeout is the fixed per-request timeout; the protocol has no
// per-endpoint override.
const DefaultTimeout = 10 * time.Second

// Client talks to the cleo ingest API on behalf of the desktop agent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	logger     *slog.Logger
}

// New creates a Client authenticating with apiToken as a bearer token
// against baseURL.
func New(baseURL, apiToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    baseURL,
		apiToken:   apiToken,
		logger:     slog.Default(),
	}
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
}

// File is one in-memory capture file queued for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// BatchUploadResult is the ingest API's response to a capture batch.
type BatchUploadResult struct {
	IDs               []string `json:"ids"`
	Uploaded          int      `json:"uploaded"`
	Failed            int      `json:"failed"`
	SuccessfulIndices []int    `json:"successful_indices"`
}

// UploadCaptureBatch POSTs files as one multipart request to
// /captures/batch, tagged with the interval id the files were captured
// under. A network error or 5xx response is retried with exponential
// backoff up to three attempts in total, since a transient network blip
// shouldn't force a whole cycle's files back into the spool; a 4xx
// response fails on the first attempt without a retry.
func (c *Client) UploadCaptureBatch(ctx context.Context, intervalID int64, files []File) (*BatchUploadResult, error) {
	var result *BatchUploadResult

	op := func() error {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		for i, f := range files {
			part, err := writer.CreatePart(map[string][]string{
				"Content-Disposition": {fmt.Sprintf(`form-data; name="file%d"; filename=%q`, i, f.Name)},
				"Content-Type":        {f.ContentType},
			})
			if err != nil {
				return backoff.Permanent(fmt.Errorf("agentclient: build multipart part: %w", err))
			}
			if _, err := part.Write(f.Data); err != nil {
				return backoff.Permanent(fmt.Errorf("agentclient: write multipart part: %w", err))
			}
		}
		if err := writer.Close(); err != nil {
			return backoff.Permanent(fmt.Errorf("agentclient: close multipart writer: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/captures/batch", body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("agentclient: build request: %w", err))
		}
		c.authorize(req)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("X-Interval-ID", strconv.FormatInt(intervalID, 10))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("agentclient: upload capture batch: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode/100 != 2 {
			uploadErr := fmt.Errorf("agentclient: capture batch upload returned HTTP %d: %s", resp.StatusCode, string(respBody))
			if resp.StatusCode/100 == 4 {
				return backoff.Permanent(uploadErr)
			}
			return uploadErr
		}

		var out BatchUploadResult
		if err := json.Unmarshal(respBody, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("agentclient: decode capture batch response: %w", err))
		}
		result = &out
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

// ActivityEvent mirrors the wire shape of one buffered observer event.
type ActivityEvent struct {
	IntervalID  int64  `json:"interval_id"`
	EventType   string `json:"event_type"`
	Application string `json:"application,omitempty"`
	Window      string `json:"window,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// UploadActivity POSTs a batch of buffered activity events as JSON.
func (c *Client) UploadActivity(ctx context.Context, events []ActivityEvent) error {
	payload, err := json.Marshal(struct {
		Events []ActivityEvent `json:"events"`
	}{Events: events})
	if err != nil {
		return fmt.Errorf("agentclient: encode activity batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/activity", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("agentclient: build activity request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agentclient: upload activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("agentclient: activity upload returned HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Limits is the per-user limits document returned by GET /me/limits.
type Limits struct {
	MaxRecordingDurationSecs int   `json:"max_recording_duration_secs"`
	RecordingBudgetSecs      int   `json:"recording_budget_secs"`
	InactivityTimeoutSecs    int   `json:"inactivity_timeout_secs"`
	StorageLimitBytes        int64 `json:"storage_limit_bytes"`
	StorageUsedBytes         int64 `json:"storage_used_bytes"`
}

// FetchLimits retrieves the caller's current limits.
func (c *Client) FetchLimits(ctx context.Context) (*Limits, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/limits", nil)
	if err != nil {
		return nil, fmt.Errorf("agentclient: build limits request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agentclient: fetch limits: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("agentclient: read limits response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("agentclient: limits fetch returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var out Limits
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("agentclient: decode limits response: %w", err)
	}
	return &out, nil
}
