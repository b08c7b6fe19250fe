package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/ayakoji/noteshare/server/internal/errors"
	"github.com/ayakoji/noteshare/server/internal/observability"
	"github.com/ayakoji/noteshare/store"
)

// MetricsResponse reports request counters since the server started.
type MetricsResponse struct {
	Version     string                         `json:"version"`
	SuccessRate float64                        `json:"successRate"`
	Snapshot    *observability.MetricsSnapshot `json:"snapshot"`
}

// GetMetrics returns per-route request counters. Host only.
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return writeError(c, err)
	}
	if user.Role != store.RoleHost {
		return writeError(c, apierrors.Forbidden("host only"))
	}

	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, &MetricsResponse{
		Version:     s.Profile.Version,
		SuccessRate: snapshot.SuccessRate(),
		Snapshot:    snapshot,
	})
}
