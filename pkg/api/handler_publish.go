package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// publishTweetHandler handles POST /tweets/:id/publish. Publishing runs
// synchronously: the orchestrator's claim/mark state machine is the
// source of truth for whether a retry is safe, so there's nothing useful
// to hand back before it finishes except the eventual outcome.
func (s *Server) publishTweetHandler(c *echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	tw, err := s.tweets.GetTweet(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	if tw.UserID != user.ID {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}

	if err := s.publisher.PublishTweet(c.Request().Context(), id); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, publishAcceptedResponse{Status: "posted"})
}

// publishThreadHandler handles POST /threads/:id/publish.
func (s *Server) publishThreadHandler(c *echo.Context) error {
	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	th, err := s.threads.GetThread(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	if th.UserID != user.ID {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}

	if err := s.publisher.PublishThread(c.Request().Context(), id); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, publishAcceptedResponse{Status: "posted"})
}
