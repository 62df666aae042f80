package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/cleo/pkg/content"
)

const (
	defaultContentLimit = 20
	maxContentLimit     = 100
)

// listContentHandler handles GET /content: the unified chronological feed
// of tweets and threads, filterable by status and paginated by limit/offset.
func (s *Server) listContentHandler(c *echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	status := content.Status(c.QueryParam("status"))
	if status == "" {
		status = content.StatusAll
	}

	limit := defaultContentLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		if n > maxContentLimit {
			n = maxContentLimit
		}
		limit = n
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		offset = n
	}

	feed, err := s.content.ListContent(c.Request().Context(), user.ID, status, limit, offset)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, feed)
}
