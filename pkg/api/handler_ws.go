package api

import (
	"net/http"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// publishTweetWSHandler handles GET /tweets/:id/publish/ws: the streaming
// variant of publishTweetHandler, reporting media-upload and posting
// progress as the orchestrator works through the publish flow.
func (s *Server) publishTweetWSHandler(c *echo.Context) error {
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

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// The desktop agent is the only client today; tighten this to an
		// explicit allowlist once cleo grows a browser-facing surface.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.publisher.PublishTweetWithProgress(c.Request().Context(), conn, id)
	return nil
}
