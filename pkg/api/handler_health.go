package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/cleo/pkg/database"
	"github.com/codeready-toolchain/cleo/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health. Only cleo's own components (database,
// frame worker pool, thumbnail pool, scheduler) are checked; external
// dependencies (the OCR service, the social platform API, the push
// notification provider) are excluded so a third-party outage doesn't flap
// cleo's own health.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if _, err := database.Health(reqCtx, s.dbClient.DB()); err != nil {
		status = healthStatusUnhealthy
		checks["database"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["database"] = HealthCheck{Status: healthStatusHealthy}
	}

	if s.frameWorker == nil {
		checks["frame_worker"] = HealthCheck{Status: healthStatusDegraded, Message: "not started"}
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
	} else {
		checks["frame_worker"] = HealthCheck{Status: healthStatusHealthy}
	}

	if s.scheduler == nil {
		checks["scheduler"] = HealthCheck{Status: healthStatusDegraded, Message: "not started"}
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
	} else {
		checks["scheduler"] = HealthCheck{Status: healthStatusHealthy}
	}

	if s.thumbnails == nil {
		checks["thumbnail_worker"] = HealthCheck{Status: healthStatusDegraded, Message: "not started"}
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
	} else {
		checks["thumbnail_worker"] = HealthCheck{Status: healthStatusHealthy}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.GitCommit,
		Checks:  checks,
	})
}
