package ocr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ocr", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ocrResponse{Text: "hello from frame"})
	}))
	defer server.Close()

	t.Setenv("TEST_OCR_KEY", "test-token")
	client := NewClient(server.URL, "TEST_OCR_KEY", 5*time.Second)

	text, err := client.ExtractText(t.Context(), []byte("fake-jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "hello from frame", text)
}

func TestClient_ExtractText_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)

	_, err := client.ExtractText(t.Context(), []byte("data"), "image/jpeg")
	require.Error(t, err)
}
