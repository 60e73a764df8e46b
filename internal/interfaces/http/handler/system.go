package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger checks a dependency; satisfied by persistence.Database
type Pinger interface {
	Ping() error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
	now       func() time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health answers 200 when the database responds and 503 otherwise
//
//	@Summary	Health check
//	@Tags		system
//	@ID			getHealth
//	@Produce	json
//	@Success	200	{object}	APIResponse[dto.HealthResponse]
//	@Failure	503	{object}	APIResponse[dto.HealthResponse]
//	@Router		/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Database: "up", Time: h.now().UTC()}
	if err := h.db.Ping(); err != nil {
		_ = c.Error(err)
		resp.Status = "degraded"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithData(
			dto.ErrCodeServiceUnavailable, "Database is unreachable", getRequestID(c), resp,
		))
		return
	}
	h.Success(c, resp)
}

// GetSystemInfo returns the build version and uptime
//
//	@Summary	Get system information
//	@Tags		system
//	@ID			getSystemInfo
//	@Produce	json
//	@Success	200	{object}	APIResponse[SystemInfoResponse]
//	@Router		/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "catalogsync",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.now().Sub(h.startTime).Round(time.Second).String(),
	})
}
