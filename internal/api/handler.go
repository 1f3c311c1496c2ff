package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/fleetsim/optimizer/internal/common/jobs"
	"github.com/fleetsim/optimizer/internal/common/middleware"
	"github.com/fleetsim/optimizer/internal/datasource/csv"
	"github.com/fleetsim/optimizer/internal/datasource/postgres"
	"github.com/fleetsim/optimizer/pkg/domain"
)

// csvUploadFiles are the required fields of the multipart upload, one per
// tabular input file.
var csvUploadFiles = []string{
	"locations.csv",
	"locations_relations.csv",
	"vehicles.csv",
	"routes.csv",
	"segments.csv",
}

// Handler serves the algorithm and data source HTTP surface.
type Handler struct {
	service *Service
	jobs    *jobs.Manager
	pg      *postgres.DataSource // nil when running against a CSV-only data source
}

// NewHandler wires a Handler. jobManager may be nil, in which case
// POST /algorithm/run executes inline instead of through the worker pool.
// pg may be nil when the data source is CSV-only, in which case
// GET /db/info reports unavailable.
func NewHandler(service *Service, jobManager *jobs.Manager, pg *postgres.DataSource) *Handler {
	return &Handler{service: service, jobs: jobManager, pg: pg}
}

// RunRequest is the optional body accepted by all three /algorithm/*
// endpoints. An empty body is valid: the service's configured defaults
// apply. When present, fields override those defaults for this run only.
// A full run handed to the job manager ignores them: the queued job carries
// only the run id and mode.
type RunRequest struct {
	AssignmentStrategy string `json:"assignment_strategy,omitempty" binding:"omitempty,oneof=greedy greedy_with_lookahead"`
	UsePathfinding     *bool  `json:"use_pathfinding,omitempty"`
}

func (r RunRequest) toOverrides() *Overrides {
	if r.AssignmentStrategy == "" && r.UsePathfinding == nil {
		return nil
	}
	o := &Overrides{UsePathfinding: r.UsePathfinding}
	if r.AssignmentStrategy != "" {
		strategy := domain.AssignmentStrategy(r.AssignmentStrategy)
		o.AssignmentStrategy = &strategy
	}
	return o
}

// bindRunRequest reads an optional JSON body; a missing or empty body is not
// an error, but a malformed or invalid one is.
func bindRunRequest(c *gin.Context) (RunRequest, bool) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.AbortWithValidation(c, err.Error())
		return req, false
	}
	return req, true
}

// RunResponse is the {run_id, status, runtime_seconds, counters} envelope
// every algorithm endpoint and the run status poll return.
type RunResponse struct {
	RunID          string                 `json:"run_id"`
	Status         Status                 `json:"status"`
	RuntimeSeconds float64                `json:"runtime_seconds"`
	Counters       map[string]interface{} `json:"counters,omitempty"`
	Message        string                 `json:"message,omitempty"`
}

func toResponse(rec *RunRecord) RunResponse {
	return RunResponse{
		RunID:          rec.RunID,
		Status:         rec.Status,
		RuntimeSeconds: rec.RuntimeSeconds,
		Counters:       rec.Counters,
		Message:        rec.Message,
	}
}

// HandlePlacement runs the placement engine synchronously: it is cheap
// enough not to need the background worker pool.
// @Summary Run vehicle placement
// @Tags algorithm
// @Accept json
// @Produce json
// @Success 200 {object} RunResponse
// @Router /algorithm/placement [post]
func (h *Handler) HandlePlacement(c *gin.Context) {
	h.runSync(c, ModePlacement)
}

// HandleAssignment runs the assignment driver synchronously against
// already-placed vehicles and pending routes.
// @Summary Run route assignment
// @Tags algorithm
// @Accept json
// @Produce json
// @Success 200 {object} RunResponse
// @Router /algorithm/assignment [post]
func (h *Handler) HandleAssignment(c *gin.Context) {
	h.runSync(c, ModeAssignment)
}

func (h *Handler) runSync(c *gin.Context, mode Mode) {
	req, ok := bindRunRequest(c)
	if !ok {
		return
	}
	rec := h.service.Submit(mode)
	rec, err := h.service.RunSync(c.Request.Context(), rec.RunID, mode, req.toOverrides())
	if err != nil {
		middleware.AbortWithInternal(c, "run failed", err)
		return
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

// HandleRun submits a full placement+assignment run. When a job manager is
// attached the run executes on the background worker pool and the handler
// returns immediately with status "running"; otherwise it falls back to
// running inline.
// @Summary Submit a full optimizer run
// @Tags algorithm
// @Accept json
// @Produce json
// @Success 202 {object} RunResponse
// @Router /algorithm/run [post]
func (h *Handler) HandleRun(c *gin.Context) {
	req, ok := bindRunRequest(c)
	if !ok {
		return
	}
	rec := h.service.Submit(ModeFull)

	if h.jobs == nil {
		rec, err := h.service.RunSync(c.Request.Context(), rec.RunID, ModeFull, req.toOverrides())
		if err != nil {
			middleware.AbortWithInternal(c, "run failed", err)
			return
		}
		c.JSON(http.StatusOK, toResponse(rec))
		return
	}

	if _, err := h.jobs.EnqueueRunOptimization(c.Request.Context(), rec.RunID, string(ModeFull)); err != nil {
		middleware.AbortWithInternal(c, "failed to enqueue run", err)
		return
	}

	c.JSON(http.StatusAccepted, toResponse(rec))
}

// HandleRunStatus polls a submitted run's status.
// @Summary Poll a run's status
// @Tags algorithm
// @Produce json
// @Success 200 {object} RunResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /algorithm/run/{run_id} [get]
func (h *Handler) HandleRunStatus(c *gin.Context) {
	runID := c.Param("run_id")
	rec, ok := h.service.GetRun(runID)
	if !ok {
		middleware.AbortWithNotFound(c, "run")
		return
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

// HandleDBInfo reports database identity and per-table row counts.
// @Summary Database connection info
// @Tags datasource
// @Produce json
// @Success 200 {object} postgres.ConnectionInfo
// @Router /db/info [get]
func (h *Handler) HandleDBInfo(c *gin.Context) {
	if h.pg == nil {
		c.JSON(http.StatusOK, gin.H{"database": "unavailable", "reason": "running against a CSV data source"})
		return
	}
	info, err := h.pg.Info(c.Request.Context())
	if err != nil {
		middleware.AbortWithInternal(c, "failed to read database info", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleCSVUpload accepts the five-file tabular input set as a multipart
// form (one field per file, field names matching the file names) and
// switches the service onto a CSV data source rooted at a fresh temp
// directory holding the upload, so a subsequent /algorithm/run reads it.
// @Summary Upload a CSV input set
// @Tags datasource
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} map[string]string
// @Router /datasource/csv-upload [post]
func (h *Handler) HandleCSVUpload(c *gin.Context) {
	dir, err := os.MkdirTemp("", "fleetsim-csv-upload-*")
	if err != nil {
		middleware.AbortWithInternal(c, "failed to stage upload", err)
		return
	}

	for _, name := range csvUploadFiles {
		fileHeader, err := c.FormFile(name)
		if err != nil {
			middleware.AbortWithBadRequest(c, "missing required file field: "+name)
			return
		}
		if err := c.SaveUploadedFile(fileHeader, filepath.Join(dir, name)); err != nil {
			middleware.AbortWithInternal(c, "failed to save uploaded file "+name, err)
			return
		}
	}

	h.service.SetDataSource(csv.New(dir))
	c.JSON(http.StatusOK, gin.H{"message": "csv data source loaded", "dir": dir})
}
