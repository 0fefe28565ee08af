package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/server/internal/observability"
)

// SystemMetricsResponse represents the system metrics of this instance.
type SystemMetricsResponse struct {
	*observability.MetricsSnapshot
	SuccessRate float64        `json:"success_rate"`
	Cache       map[string]any `json:"cache"`
}

// GetSystemMetrics returns request metrics and relation cache statistics.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetSystemMetrics(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()

	successRate := 1.0
	if snapshot.RequestTotal > 0 {
		successRate = float64(snapshot.RequestTotal-snapshot.RequestFailed) / float64(snapshot.RequestTotal)
	}

	return c.JSON(http.StatusOK, SystemMetricsResponse{
		MetricsSnapshot: snapshot,
		SuccessRate:     successRate,
		Cache:           s.Store.CacheStats(),
	})
}
