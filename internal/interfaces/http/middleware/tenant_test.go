package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTenantMiddleware(t *testing.T) {
	valid := uuid.New()

	tests := []struct {
		name           string
		header         string
		path           string
		expectedStatus int
		expectedID     uuid.UUID
	}{
		{name: "valid tenant ID", header: valid.String(), path: "/sync", expectedStatus: http.StatusOK, expectedID: valid},
		{name: "surrounding spaces are trimmed", header: " " + valid.String() + " ", path: "/sync", expectedStatus: http.StatusOK, expectedID: valid},
		{name: "missing tenant ID", path: "/sync", expectedStatus: http.StatusBadRequest},
		{name: "invalid format", header: "acme", path: "/sync", expectedStatus: http.StatusBadRequest},
		{name: "health needs no tenant", path: "/health", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(TenantMiddleware())

			var captured uuid.UUID
			var ctxTenant string
			handler := func(c *gin.Context) {
				captured = GetTenantID(c)
				ctxTenant = logger.GetTenantID(c.Request.Context())
				c.Status(http.StatusOK)
			}
			router.GET("/sync", handler)
			router.GET("/health", handler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedID, captured)
			if tt.expectedID != uuid.Nil {
				assert.Equal(t, tt.expectedID.String(), ctxTenant)
			}
			if tt.expectedStatus == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), "ERR_TENANT_REQUIRED")
			}
		})
	}
}

func TestGetTenantID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetTenantID(c))
}
