package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Client provides HTTP access to an external OCR service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates an HTTP client for OCR operations. apiKeyEnv is the name
// of the env var holding the bearer token; it may be empty if the service
// requires no auth.
func NewClient(baseURL, apiKeyEnv string, timeout time.Duration) *Client {
	var apiKey string
	if apiKeyEnv != "" {
		apiKey = os.Getenv(apiKeyEnv)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     slog.Default(),
	}
}

// ocrResponse is the external OCR service's JSON response shape.
type ocrResponse struct {
	Text string `json:"text"`
}

// ExtractText POSTs image bytes to the OCR service and returns the
// recognized text.
func (c *Client) ExtractText(ctx context.Context, imageBytes []byte, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(imageBytes))
	if err != nil {
		return "", fmt.Errorf("create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call OCR service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OCR service returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode OCR response: %w", err)
	}

	return out.Text, nil
}
