package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fleetsim/optimizer/internal/common/health"
)

// SetupRoutes registers the algorithm and data source surface on r, plus
// health checks. Job-management and Prometheus routes are mounted
// separately by their own packages (jobs.SetupJobRoutes, health's metrics
// handler) since they are optional operational surfaces, not part of the
// core algorithm API.
func SetupRoutes(r *gin.Engine, handler *Handler, healthHandler *health.Handler) {
	health.SetupHealthRoutes(r, healthHandler)

	algorithm := r.Group("/algorithm")
	{
		algorithm.POST("/placement", handler.HandlePlacement)
		algorithm.POST("/assignment", handler.HandleAssignment)
		algorithm.POST("/run", handler.HandleRun)
		algorithm.GET("/run/:run_id", handler.HandleRunStatus)
	}

	ds := r.Group("/datasource")
	{
		ds.POST("/csv-upload", handler.HandleCSVUpload)
	}

	r.GET("/db/info", handler.HandleDBInfo)
}
