package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customfields/internal/core/apperror"
	appctx "customfields/internal/core/context"
	"customfields/internal/core/tenant"
	"customfields/internal/infrastructure/http/v1/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(mw...)
	return r
}

func TestTenant(t *testing.T) {
	r := newEngine(Tenant())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = tenant.GetTenantID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "diku")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "diku", seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeValidation)
}

func TestUserContext_FromHeaders(t *testing.T) {
	r := newEngine(Tenant(), UserContext())
	var actor appctx.Actor
	r.GET("/", func(c *gin.Context) {
		actor = appctx.ResolveActor(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "diku")
	req.Header.Set(HeaderUserID, "u-7")
	req.Header.Set(HeaderUserName, "bob")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u-7", actor.ID)
	assert.Equal(t, "bob", actor.DisplayName)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestTrace_KeepsIncomingIDs(t *testing.T) {
	r := newEngine(Trace())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, "req-1", appctx.GetRequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
}

func TestErrorCode(t *testing.T) {
	r := newEngine()
	var code string
	r.Use(func(c *gin.Context) {
		c.Next()
		code = ErrorCode(c)
	})
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(apperror.NewConflict("taken"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeConflict, code)
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(apperror.NewConflict("taken").WithDetail("refId", "size_1"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusConflict, w.Code)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeConflict, body.Code)
	assert.Equal(t, "taken", body.Message)
	assert.Equal(t, "size_1", body.Details["refId"])
}

func TestErrorHandler_HidesUnknownError(t *testing.T) {
	r := gin.New()
	r.Use(Trace(), ErrorHandler())
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(errors.New("connection reset by peer"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Equal(t, "req-9", body.Details["request_id"])
	assert.NotContains(t, w.Body.String(), "connection reset")
}
