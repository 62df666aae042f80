package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/pkg/services"
)

// authenticate resolves the bearer API token on the request to a user,
// the same contract as ingest.Handlers' authenticate, since every
// /api/v1 route is reached by the same desktop agent credential.
func (s *Server) authenticate(c *echo.Context) (*ent.User, error) {
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	token := auth[len(prefix):]

	user, err := s.users.GetUserByAPIToken(c.Request().Context(), token)
	if err != nil {
		if err == services.ErrNotFound {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid api token")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "auth lookup failed")
	}
	return user, nil
}
