package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"igdb_mirror_v1_202610/internal/controller"
	"igdb_mirror_v1_202610/internal/middleware"
)

func setupTestRouter() *gin.Engine {
	ctls := &Controllers{
		Sync:    controller.NewSyncController(nil, nil),
		Catalog: controller.NewCatalogController(nil),
		Token:   controller.NewTokenController(nil, nil),
	}
	return SetupRouter(ctls, Options{Mode: gin.TestMode, Limiter: middleware.NewSyncRateLimiter()})
}

func TestRouter_Health(t *testing.T) {
	r := setupTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminRoutesGuarded(t *testing.T) {
	prev := middleware.GetJWTConfig()
	cfg := middleware.DefaultJWTConfig()
	cfg.SecretKey = "router-secret"
	middleware.SetJWTConfig(cfg)
	t.Cleanup(func() { middleware.SetJWTConfig(prev) })

	r := setupTestRouter()
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/sync/all"},
		{http.MethodPost, "/api/v1/sync/platforms"},
		{http.MethodGet, "/api/v1/token"},
		{http.MethodDelete, "/api/v1/token"},
		{http.MethodPost, "/api/v1/token/refresh"},
	}

	for _, rt := range routes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}
}
