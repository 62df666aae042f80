package api

import (
	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

// runsWSHandler handles GET /runs/ws: a live feed of the authenticated
// user's Collateral Agent run status and timeline events. The client
// subscribes after connecting by sending {"action":"subscribe","channel":"runs"}
// or {"action":"subscribe","channel":"run:<id>"}; ConnectionManager owns the
// subscribe/catchup/broadcast protocol from there.
func (s *Server) runsWSHandler(c *echo.Context) error {
	if _, err := s.authenticate(c); err != nil {
		return err
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	if s.eventsManager == nil {
		conn.Close(websocket.StatusGoingAway, "run events are not enabled on this server")
		return nil
	}

	s.eventsManager.HandleConnection(c.Request().Context(), conn)
	return nil
}
