package ingest

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/codeready-toolchain/cleo/pkg/storage"
)

// imageMIMEs and videoMIMEs classify an upload part by its declared
// Content-Type, per the ingest endpoint's "classify as image/video by MIME"
// contract.
var (
	imageMIMEs = map[string]string{
		"image/png":  "png",
		"image/jpeg": "jpg",
		"image/webp": "webp",
	}
	videoMIMEs = map[string]string{
		"video/mp4":       "mp4",
		"video/webm":      "webm",
		"video/quicktime": "mov",
	}
)

// Handlers wires the ingest HTTP endpoints: batch capture upload, activity
// event batch upload, and the per-user limits lookup.
type Handlers struct {
	store    storage.Store
	captures *services.CaptureService
	events   *services.ActivityEventService
	users    *services.UserService
	limits   LimitsConfig
	rate     *UserRateLimiter
}

// NewHandlers creates the ingest HTTP handler set.
func NewHandlers(store storage.Store, captures *services.CaptureService, events *services.ActivityEventService, users *services.UserService, limits LimitsConfig) *Handlers {
	return &Handlers{
		store:    store,
		captures: captures,
		events:   events,
		users:    users,
		limits:   limits,
		rate:     NewUserRateLimiter(),
	}
}

// Register attaches the ingest routes to an echo group, e.g. server.echo.Group("/api/v1").
func (h *Handlers) Register(g *echo.Group) {
	g.POST("/captures/batch", h.batchUpload)
	g.POST("/activity", h.activityUpload)
	g.GET("/me/limits", h.meLimits)
}

// authenticate resolves the bearer API token to a user, or responds 401.
func (h *Handlers) authenticate(c *echo.Context) (*ent.User, error) {
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	token := auth[len(prefix):]

	user, err := h.users.GetUserByAPIToken(c.Request().Context(), token)
	if err != nil {
		if err == services.ErrNotFound {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid api token")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "auth lookup failed")
	}
	return user, nil
}

// rateLimitHeaders attaches X-RateLimit-Remaining / X-RateLimit-Reset,
// matching the original implementation's 429 response parity requirement.
func (h *Handlers) rateLimitHeaders(c *echo.Context, userID string) {
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.rate.Remaining(userID)))
	c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
}

type batchUploadResponse struct {
	IDs               []string `json:"ids"`
	Uploaded          int      `json:"uploaded"`
	Failed            int      `json:"failed"`
	SuccessfulIndices []int    `json:"successful_indices"`
}

// batchUpload handles POST /captures/batch.
func (h *Handlers) batchUpload(c *echo.Context) error {
	user, err := h.authenticate(c)
	if err != nil {
		return err
	}

	h.rateLimitHeaders(c, user.ID)
	if !h.rate.Allow(user.ID) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}

	intervalID, _ := strconv.ParseInt(c.Request().Header.Get("X-Interval-ID"), 10, 64)

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	var allParts []*multipart.FileHeader
	for _, parts := range form.File {
		allParts = append(allParts, parts...)
	}

	resp := batchUploadResponse{IDs: []string{}, SuccessfulIndices: []int{}}
	ctx := c.Request().Context()

	for i, part := range allParts {
		id, err := h.ingestOne(ctx, user.ID, intervalID, part)
		if err != nil {
			resp.Failed++
			continue
		}
		resp.Uploaded++
		resp.IDs = append(resp.IDs, id)
		resp.SuccessfulIndices = append(resp.SuccessfulIndices, i)
	}

	return c.JSON(http.StatusOK, resp)
}

// ingestOne stores one multipart part's bytes, then inserts its capture
// row. On DB failure after a successful write, it attempts best-effort
// compensation by deleting the just-written object (local-before-remote,
// reversed: here storage is "local" and the row is the source of truth).
func (h *Handlers) ingestOne(ctx context.Context, userID string, intervalID int64, part *multipart.FileHeader) (string, error) {
	contentType := part.Header.Get("Content-Type")
	mediaType, ext, ok := classify(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	f, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload part: %w", err)
	}
	defer f.Close()

	now := time.Now()
	key := storage.CapturePath(userID, mediaType, ext, now)

	if err := h.store.Put(ctx, key, f); err != nil {
		return "", fmt.Errorf("failed to store capture bytes: %w", err)
	}

	row, err := h.captures.CreateCapture(ctx, models.CreateCaptureRequest{
		UserID:      userID,
		MediaType:   mediaType,
		MimeType:    contentType,
		StoragePath: key,
		CapturedAt:  now,
		IntervalID:  intervalID,
	})
	if err != nil {
		if delErr := h.store.Delete(ctx, key); delErr != nil {
			return "", fmt.Errorf("failed to create capture row (%v); also failed to delete orphan object: %w", err, delErr)
		}
		return "", fmt.Errorf("failed to create capture row: %w", err)
	}

	return row.ID, nil
}

func classify(contentType string) (mediaType, ext string, ok bool) {
	if e, found := imageMIMEs[contentType]; found {
		return "image", e, true
	}
	if e, found := videoMIMEs[contentType]; found {
		return "video", e, true
	}
	return "", "", false
}

type activityEventWire struct {
	Timestamp  time.Time      `json:"timestamp"`
	IntervalID int64          `json:"intervalId"`
	Event      activityDetail `json:"event"`
}

type activityDetail struct {
	Type        string `json:"type"`
	Application string `json:"application,omitempty"`
	Window      string `json:"window,omitempty"`
}

// activityUpload handles POST /activity: a JSON batch of activity events.
// If any row insert fails the whole request fails, so the agent retries
// the whole batch rather than risk silently dropping events.
func (h *Handlers) activityUpload(c *echo.Context) error {
	user, err := h.authenticate(c)
	if err != nil {
		return err
	}

	h.rateLimitHeaders(c, user.ID)
	if !h.rate.Allow(user.ID) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}

	var wire []activityEventWire
	if err := c.Bind(&wire); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid activity batch")
	}

	reqs := make([]models.CreateActivityEventRequest, 0, len(wire))
	for _, w := range wire {
		reqs = append(reqs, models.CreateActivityEventRequest{
			UserID:      user.ID,
			IntervalID:  w.IntervalID,
			EventType:   w.Event.Type,
			Application: w.Event.Application,
			Window:      w.Event.Window,
			OccurredAt:  w.Timestamp,
		})
	}

	if err := h.events.CreateEvents(c.Request().Context(), reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// meLimits handles GET /me/limits. storage_used_bytes stays 0: captures
// don't carry a byte-size column, so usage isn't tracked per user yet.
func (h *Handlers) meLimits(c *echo.Context) error {
	_, err := h.authenticate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.limits)
}
