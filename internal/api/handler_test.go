package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/internal/observability"
	"github.com/fleetsim/optimizer/pkg/domain"
)

func setupTestRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	algorithm := r.Group("/algorithm")
	algorithm.POST("/placement", handler.HandlePlacement)
	algorithm.POST("/assignment", handler.HandleAssignment)
	algorithm.POST("/run", handler.HandleRun)
	algorithm.GET("/run/:run_id", handler.HandleRunStatus)
	r.GET("/db/info", handler.HandleDBInfo)
	r.POST("/datasource/csv-upload", handler.HandleCSVUpload)
	return r
}

func newTestHandler(t *testing.T) (*Handler, *fakeDataSource) {
	t.Helper()
	ds := newFleet(t)
	service := NewService(ds, domain.DefaultConfig(), nil, observability.NoopSink{}, nil)
	return NewHandler(service, nil, nil), ds
}

func TestHandlePlacement_ReturnsCompletedRun(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/algorithm/placement", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.NotEmpty(t, resp.RunID)
}

func TestHandleRun_NoJobManagerRunsInline(t *testing.T) {
	handler, ds := newTestHandler(t)
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/algorithm/run", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ds.persisted)
}

func TestHandleRun_RejectsInvalidAssignmentStrategy(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := setupTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"assignment_strategy": "not-a-real-strategy"})
	req := httptest.NewRequest(http.MethodPost, "/algorithm/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRunStatus_UnknownRunReturnsNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/algorithm/run/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDBInfo_NilPostgresReportsUnavailable(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := setupTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/db/info", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["database"])
}

func TestHandleCSVUpload_MissingFileReturnsBadRequest(t *testing.T) {
	handler, _ := newTestHandler(t)
	router := setupTestRouter(handler)

	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodPost, "/datasource/csv-upload", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
